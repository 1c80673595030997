package fotosida

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

type mapStore map[string]string

func (m mapStore) Load(name string) (string, error) {
	s, ok := m[name]
	if !ok {
		return "", errors.New("no such template")
	}
	return s, nil
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		ps   []Placeholder
		want string
	}{
		{
			name: "every occurrence",
			tmpl: "<a href=\"{{LINK}}\">{{LINK}}</a>",
			ps:   []Placeholder{{"LINK", "alps"}},
			want: "<a href=\"alps\">alps</a>",
		},
		{
			name: "unmatched left verbatim",
			tmpl: "{{TITLE}} {{MISSING}}",
			ps:   []Placeholder{{"TITLE", "Alps"}},
			want: "Alps {{MISSING}}",
		},
		{
			name: "case exact",
			tmpl: "{{title}} {{TITLE}}",
			ps:   []Placeholder{{"TITLE", "Alps"}},
			want: "{{title}} Alps",
		},
		{
			name: "supplied order",
			tmpl: "{{A}}",
			ps:   []Placeholder{{"A", "{{B}}"}, {"B", "b"}},
			want: "b",
		},
		{
			name: "later values are not re-expanded by earlier keys",
			tmpl: "{{B}}",
			ps:   []Placeholder{{"A", "a"}, {"B", "{{A}}"}},
			want: "{{A}}",
		},
		{
			name: "bad keys skipped",
			tmpl: "{{}} {{X}} {{Y}}",
			ps:   []Placeholder{{"", "empty"}, {"{X}", "braced"}, {"Y", "y"}},
			want: "{{}} {{X}} y",
		},
		{
			name: "single braces untouched",
			tmpl: "{TITLE} {{ TITLE }}",
			ps:   []Placeholder{{"TITLE", "Alps"}},
			want: "{TITLE} {{ TITLE }}",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := substitute(tc.tmpl, tc.ps); got != tc.want {
				t.Errorf("substitute() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer(mapStore{"card": "<h2>{{TITLE}}</h2>"})

	if got, want := r.Render("card", Placeholder{"TITLE", "Alps"}), "<h2>Alps</h2>"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if got := r.Render("missing", Placeholder{"TITLE", "Alps"}); got != "" {
		t.Errorf("Render(missing) = %q, want empty", got)
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	tests := map[string][]string{
		tmplIndex:       {"TITLE", "DESCRIPTION", "GALLERY_CARDS"},
		tmplIndexCard:   {"LINK", "IMAGE", "ALT", "TITLE", "DESCRIPTION", "DATE", "LOCATION"},
		tmplGallery:     {"TITLE", "NAME", "DESCRIPTION", "DATE", "LOCATION", "IMAGE_CARDS"},
		tmplGalleryCard: {"IMAGE_URI", "ALT", "WIDTH", "HEIGHT", "DATE_TIME", "CAMERA", "LENS", "FSTOP", "EXPOSURE", "ISO", "FOCAL_LENGTH"},
	}
	for name, keys := range tests {
		s, err := embeddedStore{}.Load(name)
		if err != nil {
			t.Errorf("Load(%q): %v", name, err)
			continue
		}
		for _, k := range keys {
			if !strings.Contains(s, "{{"+k+"}}") {
				t.Errorf("template %q has no {{%s}}", name, k)
			}
		}
	}
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gallery_card.html"), []byte("<img src=\"{{IMAGE_URI}}\">"))

	s := NewTemplateStore(dir)
	got, err := s.Load(tmplGalleryCard)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "<img src=\"{{IMAGE_URI}}\">" {
		t.Errorf("Load(gallery_card) = %q, want the override", got)
	}

	got, err = s.Load(tmplIndex)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, _ := embeddedStore{}.Load(tmplIndex)
	if got != want {
		t.Errorf("Load(index) did not fall back to the built-in template")
	}

	if _, err := s.Load("nonexistent"); err == nil {
		t.Errorf("Load(nonexistent) succeeded")
	}
}
