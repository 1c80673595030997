package fotosida

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"k8s.io/klog/v2"
)

// Rendition describes a written image.
type Rendition struct {
	Path   string
	Width  int
	Height int
}

// Decode reads path once, keeping both the raw bytes and the decoded image.
func Decode(path string) (*Source, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(bs), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &Source{
		Path:  path,
		Name:  filepath.Base(path),
		Data:  bs,
		Image: img,
	}, nil
}

// Transcoder resizes decoded images and writes them as compressed JPEGs.
type Transcoder struct {
	Quality    int
	Compressor Compressor
}

// Transcode resizes img so that its longer side is maxDim and writes it to dest.
// Square and portrait images are sized by height.
func (t *Transcoder) Transcode(img image.Image, maxDim int, dest string) (*Rendition, error) {
	if maxDim <= 0 {
		return nil, fmt.Errorf("invalid max dimension %d", maxDim)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image: %+v", b)
	}

	x, y := scaledSize(b.Dx(), b.Dy(), maxDim)
	klog.V(1).Infof("resizing %dx%d -> %dx%d: %s", b.Dx(), b.Dy(), x, y, dest)

	rimg := transform.Resize(img, x, y, transform.Lanczos)
	if err := imgio.Save(dest, rimg, imgio.JPEGEncoder(t.Quality)); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	if t.Compressor != nil {
		if err := compressFile(t.Compressor, dest); err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
	}

	return readRendition(dest)
}

// scaledSize returns the output dimensions for a w x h image bounded by maxDim.
func scaledSize(w, h, maxDim int) (int, int) {
	if w > h {
		return maxDim, max(1, int(math.Round(float64(h)*float64(maxDim)/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*float64(maxDim)/float64(h)))), maxDim
}

// readRendition reads the dimensions of an image on disk.
func readRendition(path string) (*Rendition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode: %w", err)
	}

	return &Rendition{Path: path, Width: ic.Width, Height: ic.Height}, nil
}
