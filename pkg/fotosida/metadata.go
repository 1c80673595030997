package fotosida

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"
)

// Extractor reads capture metadata from a decoded source. It never fails:
// anything it cannot read is left empty.
type Extractor interface {
	Extract(src *Source) *Photograph
}

type field int

const (
	fieldDateTime field = iota
	fieldMake
	fieldModel
	fieldLens
	fieldFStop
	fieldExposure
	fieldFocalLength
	fieldISO
)

// fieldTag names a field in both EXIF vocabularies we read from.
type fieldTag struct {
	exif     exif.FieldName
	exiftool string
	fraction bool
}

var fieldTags = map[field]fieldTag{
	fieldDateTime:    {exif: exif.DateTimeOriginal, exiftool: "DateTimeOriginal"},
	fieldMake:        {exif: exif.Make, exiftool: "Make"},
	fieldModel:       {exif: exif.Model, exiftool: "Model"},
	fieldLens:        {exif: exif.LensModel, exiftool: "LensModel"},
	fieldFStop:       {exif: exif.FNumber, exiftool: "FNumber"},
	fieldExposure:    {exif: exif.ExposureTime, exiftool: "ExposureTime", fraction: true},
	fieldFocalLength: {exif: exif.FocalLength, exiftool: "FocalLength"},
	fieldISO:         {exif: exif.ISOSpeedRatings, exiftool: "ISO"},
}

// allFields is the fixed read order.
var allFields = []field{
	fieldDateTime, fieldMake, fieldModel, fieldLens,
	fieldFStop, fieldExposure, fieldFocalLength, fieldISO,
}

// reading is the outcome of reading one field.
type reading struct {
	field field
	value string
	err   error
}

func readAll(read func(field) reading) []reading {
	rs := make([]reading, 0, len(allFields))
	for _, f := range allFields {
		rs = append(rs, read(f))
	}
	return rs
}

// photograph collects readings into a Photograph. Failed readings leave their field empty.
func photograph(name string, rs []reading) *Photograph {
	p := &Photograph{FileName: name}
	var mk, model string
	for _, r := range rs {
		if r.err != nil {
			klog.V(2).Infof("%s: field %s: %v", name, fieldTags[r.field].exif, r.err)
			continue
		}
		switch r.field {
		case fieldDateTime:
			p.DateTime = r.value
		case fieldMake:
			mk = r.value
		case fieldModel:
			model = r.value
		case fieldLens:
			p.Lens = r.value
		case fieldFStop:
			p.FStop = r.value
		case fieldExposure:
			p.Exposure = r.value
		case fieldFocalLength:
			p.FocalLength = r.value
		case fieldISO:
			p.ISO = r.value
		}
	}
	p.Camera = joinCamera(mk, model)
	return p
}

// joinCamera joins make and model with single spaces, dropping empty parts.
func joinCamera(mk, model string) string {
	return strings.Join(strings.Fields(mk+" "+model), " ")
}

type exifExtractor struct{}

// NewExifExtractor returns an Extractor that parses EXIF in-process.
func NewExifExtractor() Extractor {
	return exifExtractor{}
}

func (exifExtractor) Extract(src *Source) (p *Photograph) {
	defer func() {
		if r := recover(); r != nil {
			klog.Warningf("exif parser panicked on %s: %v", src.Path, r)
			p = &Photograph{FileName: src.Name}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(src.Data))
	if err != nil {
		klog.V(1).Infof("no EXIF in %s: %v", src.Path, err)
		return &Photograph{FileName: src.Name}
	}

	return photograph(src.Name, readAll(func(f field) reading {
		return readExifField(x, f)
	}))
}

func readExifField(x *exif.Exif, f field) reading {
	ft := fieldTags[f]
	tag, err := x.Get(ft.exif)
	if err != nil {
		return reading{field: f, err: err}
	}

	r := reading{field: f}
	switch tag.Format() {
	case tiff.StringVal:
		var s string
		s, r.err = tag.StringVal()
		r.value = cleanString(s)
	case tiff.RatVal:
		var num, den int64
		num, den, r.err = tag.Rat2(0)
		if r.err == nil {
			r.value, r.err = formatRational(num, den, ft.fraction)
		}
	case tiff.IntVal:
		var n int
		n, r.err = tag.Int(0)
		r.value = strconv.Itoa(n)
	case tiff.FloatVal:
		var v float64
		v, r.err = tag.Float(0)
		r.value = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		r.value = cleanString(tag.String())
	}
	if r.err != nil {
		r.value = ""
	}
	return r
}

func cleanString(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// formatRational renders num/den in lowest terms: an integer when exact,
// a fraction such as 1/250 when fraction is set, otherwise a short decimal.
func formatRational(num, den int64, fraction bool) (string, error) {
	if den == 0 {
		return "", fmt.Errorf("zero denominator in %d/%d", num, den)
	}
	if den < 0 {
		num, den = -num, -den
	}
	if d := gcd(abs(num), den); d > 1 {
		num, den = num/d, den/d
	}
	if den == 1 {
		return strconv.FormatInt(num, 10), nil
	}
	if fraction {
		return fmt.Sprintf("%d/%d", num, den), nil
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64), nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
