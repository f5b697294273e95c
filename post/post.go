// Package post holds the source document model: front matter, dates and the
// output location derived from them.
package post

import (
	"fmt"
	"path/filepath"
)

// Post is one source document. It borrows data and never modifies it.
type Post struct {
	Metadata
	data   []byte
	offset int
	path   string
}

// New parses the front matter of data.
func New(data []byte) (*Post, error) {
	m, offset, err := ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	return &Post{
		Metadata: m,
		data:     data,
		offset:   offset,
		path:     outputPath(m),
	}, nil
}

// Headless reports whether the post lives elsewhere and only shows up in
// listings.
func (p *Post) Headless() bool {
	return p.Mirror != ""
}

// Content returns the body after the title line.
func (p *Post) Content() []byte {
	return p.data[p.offset:]
}

// Offset is the byte offset of the body within the document.
func (p *Post) Offset() int {
	return p.offset
}

// Path is the slash-separated output path relative to the site root, e.g.
// "2021/jun/15/hello-world.html".
func (p *Post) Path() string {
	return p.path
}

// URL is the site-absolute URL of the post, or the mirror for headless posts.
func (p *Post) URL() string {
	if p.Headless() {
		return p.Mirror
	}
	return "/" + p.path
}

// OutputFile resolves the post page below outputDir.
func (p *Post) OutputFile(outputDir string) string {
	return filepath.Join(outputDir, filepath.FromSlash(p.path))
}

func outputPath(m Metadata) string {
	slug := Slugify(m.Title)
	if slug == "" {
		slug = "post"
	}
	return fmt.Sprintf("%04d/%s/%02d/%s.html", m.Date.Year, m.Date.MonthSlug(), m.Date.Day, slug)
}
