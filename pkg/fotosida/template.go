package fotosida

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed assets/style.css
var styleText []byte

const (
	tmplIndex       = "index"
	tmplIndexCard   = "index_gallery_card"
	tmplGallery     = "gallery"
	tmplGalleryCard = "gallery_card"
)

// TemplateStore retrieves raw templates by name.
type TemplateStore interface {
	Load(name string) (string, error)
}

type embeddedStore struct{}

func (embeddedStore) Load(name string) (string, error) {
	bs, err := embeddedTemplates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// dirStore reads <dir>/<name>.html, falling back to the embedded templates.
type dirStore struct {
	dir string
}

func (d dirStore) Load(name string) (string, error) {
	bs, err := os.ReadFile(filepath.Join(d.dir, name+".html"))
	if errors.Is(err, fs.ErrNotExist) {
		klog.V(1).Infof("%s has no %s template, using built-in", d.dir, name)
		return embeddedStore{}.Load(name)
	}
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// NewTemplateStore returns the built-in templates, overridden by files in dir if dir is set.
func NewTemplateStore(dir string) TemplateStore {
	if dir == "" {
		return embeddedStore{}
	}
	return dirStore{dir: dir}
}

// Placeholder is a {{Key}} token and its replacement.
type Placeholder struct {
	Key   string
	Value string
}

// Renderer fills templates by literal placeholder substitution.
type Renderer struct {
	store TemplateStore
	cache map[string]string
}

// NewRenderer returns a Renderer backed by store.
func NewRenderer(store TemplateStore) *Renderer {
	return &Renderer{store: store, cache: map[string]string{}}
}

// Render loads the named template and substitutes ps in order. A template
// that cannot be loaded renders as the empty string.
func (r *Renderer) Render(name string, ps ...Placeholder) string {
	t, ok := r.cache[name]
	if !ok {
		var err error
		t, err = r.store.Load(name)
		if err != nil {
			klog.Errorf("load template %q: %v", name, err)
			return ""
		}
		r.cache[name] = t
	}
	return substitute(t, ps)
}

// substitute replaces each {{KEY}} in t. Unknown tokens are left as they are.
func substitute(t string, ps []Placeholder) string {
	for _, p := range ps {
		if err := checkKey(p.Key); err != nil {
			klog.Errorf("skipping placeholder: %v", err)
			continue
		}
		t = strings.ReplaceAll(t, "{{"+p.Key+"}}", p.Value)
	}
	return t
}

func checkKey(k string) error {
	if k == "" {
		return errors.New("empty key")
	}
	if strings.ContainsAny(k, "{}") {
		return fmt.Errorf("key %q contains a brace", k)
	}
	return nil
}
