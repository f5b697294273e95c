package folio

import (
	"slices"

	"github.com/eringen/folio/post"
	"github.com/eringen/folio/views"
)

// Dependency links one input file to the output produced from it.
type Dependency struct {
	Input  string
	Output string
}

// CacheEntry records everything one document produced: the page itself, the
// assets it references, and the metadata the aggregate pages are built from.
// The first dependency is always the document.
type CacheEntry struct {
	Deps     []Dependency
	Metadata post.Metadata
	URL      string
}

// Equal compares two entries field by field.
func (e CacheEntry) Equal(o CacheEntry) bool {
	return e.URL == o.URL && slices.Equal(e.Deps, o.Deps) && e.Metadata.Equal(o.Metadata)
}

// Headless reports whether the entry is a mirrored post without its own page.
func (e CacheEntry) Headless() bool {
	return e.Metadata.Mirror != ""
}

// Summary converts the entry into the form listing templates consume.
func (e CacheEntry) Summary() views.PostSummary {
	d := e.Metadata.Date
	return views.PostSummary{
		Title:      e.Metadata.Title,
		URL:        e.URL,
		Date:       d.ISO(),
		Year:       d.Year,
		Month:      d.MonthName(),
		Day:        d.Day,
		Categories: slices.Clone(e.Metadata.Categories),
		External:   e.Headless(),
	}
}

// DocumentPaths locates one document and the directories its references are
// resolved against.
type DocumentPaths struct {
	Input      string // source document
	Output     string // generated page
	InputBase  string // directory of the source document
	OutputBase string // directory of the generated page
}
