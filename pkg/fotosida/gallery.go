package fotosida

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

const galleryConfigName = "gallery.yaml"

// LoadGallery reads gallery.yaml from dir. A missing file yields an empty
// Gallery; a file that cannot be parsed is an error.
func LoadGallery(dir string) (*Gallery, error) {
	path := filepath.Join(dir, galleryConfigName)
	bs, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		klog.V(1).Infof("no %s in %s", galleryConfigName, dir)
		return &Gallery{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	g, err := parseGallery(bs)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// parseGallery decodes gallery YAML, matching top-level keys case-insensitively.
func parseGallery(bs []byte) (*Gallery, error) {
	g := &Gallery{}

	var doc yaml.Node
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return g, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return g, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of gallery fields", root.Line)
	}

	for i := 0; i < len(root.Content); i += 2 {
		k := root.Content[i]
		k.Value = strings.ToLower(k.Value)
	}

	if err := root.Decode(g); err != nil {
		return nil, err
	}
	return g, nil
}

// slugify turns s into a single safe path segment.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "gallery"
	}
	return out
}

// uniqueURI picks the URI for a gallery: the configured one, else the folder
// name, made path-safe and distinct from every URI in taken.
func uniqueURI(uri string, folder string, taken map[string]bool) string {
	if strings.TrimSpace(uri) == "" {
		uri = folder
	}

	base := slugify(uri)
	if base != uri {
		klog.V(1).Infof("using uri %q for %q", base, uri)
	}

	out := base
	for n := 2; taken[out]; n++ {
		out = fmt.Sprintf("%s-%d", base, n)
	}
	if out != base {
		klog.Warningf("uri %q is already in use, using %q", base, out)
	}

	taken[out] = true
	return out
}
