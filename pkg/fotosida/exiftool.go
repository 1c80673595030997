package fotosida

import (
	"fmt"
	"strings"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// ExiftoolExtractor reads metadata through a long-running exiftool process.
// Close must be called when the build is done.
type ExiftoolExtractor struct {
	et *exiftool.Exiftool
}

// NewExiftoolExtractor starts exiftool.
func NewExiftoolExtractor() (*ExiftoolExtractor, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExiftoolExtractor{et: et}, nil
}

func (e *ExiftoolExtractor) Extract(src *Source) *Photograph {
	fis := e.et.ExtractMetadata(src.Path)
	if len(fis) == 0 {
		klog.Warningf("exiftool returned nothing for %s", src.Path)
		return &Photograph{FileName: src.Name}
	}

	fi := fis[0]
	if fi.Err != nil {
		klog.Warningf("extract fail for %q: %v", src.Path, fi.Err)
		return &Photograph{FileName: src.Name}
	}

	for k, v := range fi.Fields {
		klog.V(3).Infof("%q=%v", k, v)
	}

	return photograph(src.Name, readAll(func(f field) reading {
		s, err := fi.GetString(fieldTags[f].exiftool)
		if err != nil {
			return reading{field: f, err: err}
		}
		s = cleanString(s)
		if f == fieldFocalLength {
			s = strings.Replace(s, ".0 mm", " mm", 1)
		}
		return reading{field: f, value: s}
	}))
}

// Close stops exiftool.
func (e *ExiftoolExtractor) Close() error {
	return e.et.Close()
}
