package fotosida

import (
	"bytes"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"k8s.io/klog/v2"
)

// Compressor shrinks an encoded image. Implementations must never return
// more bytes than they were given.
type Compressor interface {
	Compress(bs []byte) ([]byte, error)
}

// JPEGCompressor re-encodes JPEG data at a fixed quality, keeping whichever
// encoding is smaller.
type JPEGCompressor struct {
	Quality int
}

func (c *JPEGCompressor) Compress(bs []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.Quality)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	if buf.Len() >= len(bs) {
		return bs, nil
	}
	return buf.Bytes(), nil
}

// compressFile runs c over path in place.
func compressFile(c Compressor, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	out, err := c.Compress(bs)
	if err != nil {
		return err
	}

	if len(out) >= len(bs) {
		klog.V(1).Infof("%s: already optimal at %d bytes", path, len(bs))
		return nil
	}

	klog.V(1).Infof("%s: %d -> %d bytes", path, len(bs), len(out))
	return os.WriteFile(path, out, st.Mode().Perm())
}
