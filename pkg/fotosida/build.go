package fotosida

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

const (
	thumbnailName = "thumbnail.jpg"
	assetsDirName = "_"
	indexName     = "index.html"
)

// ErrUnsafeOutput is returned when the output directory cannot be cleared safely.
var ErrUnsafeOutput = errors.New("unsafe output directory")

// Builder turns an input tree into a site.
type Builder struct {
	c          *Config
	extractor  Extractor
	transcoder *Transcoder
	renderer   *Renderer
	captioner  Captioner

	uris map[string]bool
}

// Option customizes a Builder.
type Option func(*Builder)

// WithExtractor overrides the metadata extractor selected by Config.ExifBackend.
func WithExtractor(e Extractor) Option {
	return func(b *Builder) { b.extractor = e }
}

// WithCaptioner enables alt text generation.
func WithCaptioner(c Captioner) Option {
	return func(b *Builder) { b.captioner = c }
}

// WithTemplateStore overrides where templates are loaded from.
func WithTemplateStore(s TemplateStore) Option {
	return func(b *Builder) { b.renderer = NewRenderer(s) }
}

// NewBuilder returns a Builder for c.
func NewBuilder(c *Config, opts ...Option) (*Builder, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	b := &Builder{
		c:          c,
		transcoder: &Transcoder{Quality: c.Quality},
		renderer:   NewRenderer(NewTemplateStore(c.TemplateDir)),
	}
	if c.CompressQuality > 0 {
		b.transcoder.Compressor = &JPEGCompressor{Quality: c.CompressQuality}
	}
	for _, o := range opts {
		o(b)
	}

	if b.extractor == nil {
		switch c.ExifBackend {
		case ExifBackendExiftool:
			e, err := NewExiftoolExtractor()
			if err != nil {
				return nil, err
			}
			b.extractor = e
		default:
			b.extractor = NewExifExtractor()
		}
	}

	return b, nil
}

// Close releases the extractor, if it holds anything.
func (b *Builder) Close() error {
	if c, ok := b.extractor.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Build runs a complete build with a fresh Builder.
func Build(ctx context.Context, c *Config, opts ...Option) (*Site, error) {
	b, err := NewBuilder(c, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			klog.Errorf("close: %v", err)
		}
	}()
	return b.Build(ctx)
}

// Build clears the output directory, builds every gallery and writes the site.
func (b *Builder) Build(ctx context.Context) (*Site, error) {
	klog.Infof("build: %s -> %s", b.c.InDir, b.c.OutDir)

	if err := cleanOutput(b.c.InDir, b.c.OutDir); err != nil {
		return nil, fmt.Errorf("clean output: %w", err)
	}

	dirs, err := listGalleries(b.c.InDir, b.c.OutDir)
	if err != nil {
		return nil, fmt.Errorf("find galleries: %w", err)
	}

	// Galleries must not shadow the site index or the shared assets directory.
	b.uris = map[string]bool{assetsDirName: true, indexName: true}
	s := &Site{Galleries: []*Gallery{}}
	for _, d := range dirs {
		g, err := b.buildGallery(ctx, d)
		if err != nil {
			klog.Errorf("skipping gallery %s: %v", d, err)
			continue
		}
		s.Galleries = append(s.Galleries, g)
	}

	if err := b.assemble(s); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	klog.Infof("built %d galleries into %s", len(s.Galleries), b.c.OutDir)
	return s, nil
}

// cleanOutput empties outDir, creating it if needed. It refuses to touch a
// directory that is, or contains, the input.
func cleanOutput(inDir, outDir string) error {
	if strings.TrimSpace(outDir) == "" {
		return fmt.Errorf("%w: no output directory", ErrUnsafeOutput)
	}

	absIn, err := filepath.Abs(inDir)
	if err != nil {
		return fmt.Errorf("abs: %w", err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("abs: %w", err)
	}
	if rel, err := filepath.Rel(absOut, absIn); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s would delete the input %s", ErrUnsafeOutput, outDir, inDir)
	}

	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	names, err := godirwalk.ReadDirnames(absOut, nil)
	if err != nil {
		return fmt.Errorf("read %s: %w", absOut, err)
	}

	klog.V(1).Infof("removing %d entries from %s", len(names), absOut)
	for _, n := range names {
		if err := os.RemoveAll(filepath.Join(absOut, n)); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
	}
	return nil
}

// buildGallery loads the config for dir and renders each of its photos.
func (b *Builder) buildGallery(ctx context.Context, dir string) (*Gallery, error) {
	g, err := LoadGallery(dir)
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}

	g.InPath = dir
	g.URI = uniqueURI(g.URI, filepath.Base(dir), b.uris)
	g.OutPath = filepath.Join(b.c.OutDir, g.URI)
	g.Photographs = []*Photograph{}

	if err := os.MkdirAll(g.OutPath, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	names, err := listPhotos(dir)
	if err != nil {
		return nil, fmt.Errorf("find photos: %w", err)
	}

	klog.Infof("gallery %q: %d photos from %s", g.URI, len(names), dir)
	for _, n := range names {
		p, err := b.buildPhoto(ctx, g, n)
		if err != nil {
			klog.Errorf("skipping photo %s: %v", filepath.Join(dir, n), err)
			continue
		}
		g.Photographs = append(g.Photographs, p)
	}

	if g.Thumbnail != "" && !g.HasThumbnail {
		klog.Warningf("gallery %q: thumbnail %q was not produced", g.URI, g.Thumbnail)
	}
	return g, nil
}

// buildPhoto decodes a photo, records its metadata, then writes its renditions.
func (b *Builder) buildPhoto(ctx context.Context, g *Gallery, name string) (*Photograph, error) {
	klog.Infof("processing photo %s", filepath.Join(g.InPath, name))

	src, err := Decode(filepath.Join(g.InPath, name))
	if err != nil {
		return nil, err
	}

	// Metadata has to be read before anything is re-encoded.
	p := b.extractor.Extract(src)
	p.FileName = name

	if b.captioner != nil {
		c, err := b.captioner.Caption(ctx, src)
		if err != nil {
			klog.Warningf("caption %s: %v", src.Path, err)
		}
		p.Caption = c
	}

	r, err := b.transcoder.Transcode(src.Image, b.c.MaxSize, filepath.Join(g.OutPath, name))
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}
	p.Width, p.Height = r.Width, r.Height

	if name == g.Thumbnail {
		if _, err := b.transcoder.Transcode(src.Image, b.c.ThumbSize, filepath.Join(g.OutPath, thumbnailName)); err != nil {
			klog.Errorf("thumbnail for %s: %v", src.Path, err)
		} else {
			g.HasThumbnail = true
		}
	}

	return p, nil
}
