// Package fotosida builds a static photo gallery site from a tree of gallery folders.
package fotosida

import "image"

// Gallery is a folder of photographs rendered as one page plus an index card.
type Gallery struct {
	URI         string `yaml:"uri"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	Location    string `yaml:"location"`
	Thumbnail   string `yaml:"thumbnail"`

	Photographs []*Photograph `yaml:"-"`

	InPath       string `yaml:"-"`
	OutPath      string `yaml:"-"`
	HasThumbnail bool   `yaml:"-"`
}

// Title is the display name of a gallery, falling back to its URI.
func (g *Gallery) Title() string {
	if g.Name != "" {
		return g.Name
	}
	return g.URI
}

// Photograph is one processed source image plus its capture metadata.
type Photograph struct {
	FileName string

	// Raw EXIF string representations; empty when the tag is missing.
	DateTime    string
	Camera      string
	Lens        string
	FStop       string
	Exposure    string
	ISO         string
	FocalLength string

	Caption string

	Width  int
	Height int
}

// Source is a decoded source file. Data holds the original bytes so that
// metadata can be read before anything is re-encoded.
type Source struct {
	Path  string
	Name  string
	Data  []byte
	Image image.Image
}

// Site is the result of a build.
type Site struct {
	Galleries []*Gallery
}
