package fotosida

import (
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// assemble writes the static assets, the site index, and each gallery page.
func (b *Builder) assemble(s *Site) error {
	if err := writeAssets(b.c); err != nil {
		return fmt.Errorf("assets: %w", err)
	}

	if err := b.writeIndex(s.Galleries); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	for _, g := range s.Galleries {
		if err := b.writeGalleryPage(g); err != nil {
			klog.Errorf("gallery page %q: %v", g.URI, err)
		}
	}
	return nil
}

func writeAssets(c *Config) error {
	dir := filepath.Join(c.OutDir, assetsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "style.css"), styleText, 0o644); err != nil {
		return fmt.Errorf("write style: %w", err)
	}

	if c.AssetsDir == "" {
		return nil
	}
	klog.V(1).Infof("copying assets from %s", c.AssetsDir)
	if err := copy.Copy(c.AssetsDir, c.OutDir); err != nil {
		return fmt.Errorf("copy %s: %w", c.AssetsDir, err)
	}
	return nil
}

func (b *Builder) writeIndex(gs []*Gallery) error {
	klog.V(1).Infof("writing index with %d galleries ...", len(gs))
	p := filepath.Join(b.c.OutDir, indexName)
	return os.WriteFile(p, []byte(b.renderIndex(gs)), 0o644)
}

func (b *Builder) writeGalleryPage(g *Gallery) error {
	klog.V(1).Infof("writing gallery %s with %d photos ...", g.URI, len(g.Photographs))
	p := filepath.Join(g.OutPath, indexName)
	return os.WriteFile(p, []byte(b.renderGallery(g)), 0o644)
}

// renderIndex renders one card per gallery, in discovery order.
func (b *Builder) renderIndex(gs []*Gallery) string {
	cards := make([]string, 0, len(gs))
	for _, g := range gs {
		cards = append(cards, b.renderer.Render(tmplIndexCard,
			Placeholder{"LINK", url.PathEscape(g.URI)},
			Placeholder{"IMAGE", cardImage(g)},
			Placeholder{"ALT", html.EscapeString(g.Title())},
			Placeholder{"TITLE", html.EscapeString(g.Title())},
			Placeholder{"DESCRIPTION", html.EscapeString(g.Description)},
			Placeholder{"DATE", html.EscapeString(g.Date)},
			Placeholder{"LOCATION", html.EscapeString(g.Location)},
		))
	}

	return b.renderer.Render(tmplIndex,
		Placeholder{"TITLE", html.EscapeString(b.c.Title)},
		Placeholder{"DESCRIPTION", html.EscapeString(b.c.Description)},
		Placeholder{"GALLERY_CARDS", strings.Join(cards, "\n")},
	)
}

// renderGallery renders one card per photograph, in the order they were added.
func (b *Builder) renderGallery(g *Gallery) string {
	cards := make([]string, 0, len(g.Photographs))
	for _, p := range g.Photographs {
		alt := p.Caption
		if alt == "" {
			alt = p.FileName
		}
		cards = append(cards, b.renderer.Render(tmplGalleryCard,
			Placeholder{"IMAGE_URI", url.PathEscape(p.FileName)},
			Placeholder{"ALT", html.EscapeString(alt)},
			Placeholder{"WIDTH", strconv.Itoa(p.Width)},
			Placeholder{"HEIGHT", strconv.Itoa(p.Height)},
			Placeholder{"DATE_TIME", html.EscapeString(p.DateTime)},
			Placeholder{"CAMERA", html.EscapeString(p.Camera)},
			Placeholder{"LENS", html.EscapeString(p.Lens)},
			Placeholder{"FSTOP", html.EscapeString(p.FStop)},
			Placeholder{"EXPOSURE", html.EscapeString(p.Exposure)},
			Placeholder{"ISO", html.EscapeString(p.ISO)},
			Placeholder{"FOCAL_LENGTH", html.EscapeString(p.FocalLength)},
		))
	}

	return b.renderer.Render(tmplGallery,
		Placeholder{"TITLE", html.EscapeString(b.c.Title)},
		Placeholder{"NAME", html.EscapeString(g.Title())},
		Placeholder{"DESCRIPTION", html.EscapeString(g.Description)},
		Placeholder{"DATE", html.EscapeString(g.Date)},
		Placeholder{"LOCATION", html.EscapeString(g.Location)},
		Placeholder{"IMAGE_CARDS", strings.Join(cards, "\n")},
	)
}

// cardImage is the image shown for g on the index page, relative to the site root.
func cardImage(g *Gallery) string {
	switch {
	case g.HasThumbnail:
		return url.PathEscape(g.URI) + "/" + thumbnailName
	case len(g.Photographs) > 0:
		return url.PathEscape(g.URI) + "/" + url.PathEscape(g.Photographs[0].FileName)
	}
	return ""
}
