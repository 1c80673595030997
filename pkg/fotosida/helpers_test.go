package fotosida

import (
	"bytes"
	"encoding/binary"
	"flag"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"k8s.io/klog/v2"
)

// testJPEG returns an encoded w x h gradient.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, bs []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const (
	tiffASCII    = 2
	tiffShort    = 3
	tiffLong     = 4
	tiffRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var le = binary.LittleEndian

func asciiEntry(tag uint16, s string) ifdEntry {
	return ifdEntry{tag: tag, typ: tiffASCII, count: uint32(len(s) + 1), data: append([]byte(s), 0)}
}

func shortEntry(tag uint16, v uint16) ifdEntry {
	return ifdEntry{tag: tag, typ: tiffShort, count: 1, data: le.AppendUint16(nil, v)}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	return ifdEntry{tag: tag, typ: tiffRational, count: 1, data: le.AppendUint32(le.AppendUint32(nil, num), den)}
}

func ifdSize(es []ifdEntry) int {
	n := 2 + 12*len(es) + 4
	for _, e := range es {
		if len(e.data) > 4 {
			n += len(e.data) + len(e.data)%2
		}
	}
	return n
}

// appendIFD appends an IFD that starts at offset start within the TIFF stream.
func appendIFD(out []byte, start int, es []ifdEntry) []byte {
	out = le.AppendUint16(out, uint16(len(es)))
	dataOff := start + 2 + 12*len(es) + 4
	var extra []byte
	for _, e := range es {
		out = le.AppendUint16(out, e.tag)
		out = le.AppendUint16(out, e.typ)
		out = le.AppendUint32(out, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			out = append(out, v...)
			continue
		}
		out = le.AppendUint32(out, uint32(dataOff+len(extra)))
		extra = append(extra, e.data...)
		if len(e.data)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	out = le.AppendUint32(out, 0)
	return append(out, extra...)
}

// exifTIFF builds a little-endian TIFF with IFD0 and an Exif sub-IFD.
// Entries must be sorted by tag.
func exifTIFF(ifd0 []ifdEntry, sub []ifdEntry) []byte {
	ifd0 = append(ifd0, ifdEntry{tag: 0x8769, typ: tiffLong, count: 1})
	subStart := 8 + ifdSize(ifd0)
	ifd0[len(ifd0)-1].data = le.AppendUint32(nil, uint32(subStart))

	out := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	out = appendIFD(out, 8, ifd0)
	return appendIFD(out, subStart, sub)
}

// withExif inserts an APP1 Exif segment right after the JPEG SOI marker.
func withExif(jpg []byte, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := append([]byte{}, jpg[:2]...)
	out = append(out, seg...)
	return append(out, jpg[2:]...)
}

// cameraJPEG is a w x h JPEG carrying a full set of camera EXIF tags.
func cameraJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	tiff := exifTIFF(
		[]ifdEntry{
			asciiEntry(0x010F, "FUJIFILM"),
			asciiEntry(0x0110, "X-T4"),
		},
		[]ifdEntry{
			rationalEntry(0x829A, 10, 2000),
			rationalEntry(0x829D, 28, 10),
			shortEntry(0x8827, 400),
			asciiEntry(0x9003, "2023:07:14 10:21:33"),
			rationalEntry(0x920A, 35, 1),
			asciiEntry(0xA434, "XF35mmF1.4 R"),
		},
	)
	return withExif(testJPEG(t, w, h), tiff)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// captureLogs redirects klog output for the rest of the test.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	if err := fs.Set("logtostderr", "false"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := fs.Set("alsologtostderr", "false"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	buf := &syncBuffer{}
	klog.SetOutput(buf)
	t.Cleanup(func() {
		klog.Flush()
		klog.SetOutput(os.Stderr)
		if err := fs.Set("logtostderr", "true"); err != nil {
			t.Errorf("set flag: %v", err)
		}
	})
	return buf
}
