package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	doc := "date: 01-02-1970\ncategories: A, B, C\n\n# Title \n\ncontent"
	m, offset, err := ParseMetadata([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, Date{Year: 1970, Month: 2, Day: 1}, m.Date)
	assert.Equal(t, "Title", m.Title)
	assert.Equal(t, []string{"A", "B", "C"}, m.Categories)
	assert.Equal(t, "content", doc[offset:])
	assert.False(t, m.Startpage)
	assert.Empty(t, m.Mirror)
}

func TestParseMetadataOptionalFields(t *testing.T) {
	doc := "date: 15-06-2021\ncategories: go\nmirror: https://example.com/post\nstartpage: true\n\n# Elsewhere\n"
	m, _, err := ParseMetadata([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post", m.Mirror)
	assert.True(t, m.Startpage)
}

func TestParseMetadataErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"missing colon", "   missing colon\n", 1},
		{"invalid key", "   x: y\n", 1},
		{"empty list item", "categories: a,   ,b\n", 1},
		{"bad date", "date: 31-02-2020\n", 1},
		{"bad boolean", "date: 01-01-2020\nstartpage: yes\n", 2},
		{"no categories", "date: 01-01-2020\n\n# T\n\nbody", 5},
		{"no date", "categories: a\n\n# T\n\nbody", 5},
		{"no title", "date: 01-01-2020\ncategories: a\n\nbody", 4},
		{"no space after hash", "date: 01-01-2020\ncategories: a\n\n#T\n\nbody", 4},
		{"no content", "date: 01-01-2020\ncategories: a\n\n# T\n\n", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseMetadata([]byte(tt.doc))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestHeadlessPostNeedsNoContent(t *testing.T) {
	p, err := New([]byte("date: 01-01-2020\ncategories: a\nmirror: https://x.org/a\n\n# Mirrored\n"))
	require.NoError(t, err)
	assert.True(t, p.Headless())
	assert.Equal(t, "https://x.org/a", p.URL())
}

func TestPostPath(t *testing.T) {
	p, err := New([]byte("date: 05-03-2021\ncategories: a\n\n# Hello, Wörld!\n\nbody\n"))
	require.NoError(t, err)
	assert.Equal(t, "2021/mar/05/hello-world.html", p.Path())
	assert.Equal(t, "/2021/mar/05/hello-world.html", p.URL())
	assert.Equal(t, "body\n", string(p.Content()))
}

func TestMetadataCloneIsDeep(t *testing.T) {
	m := Metadata{Title: "t", Categories: []string{"a"}}
	c := m.Clone()
	c.Categories[0] = "b"
	assert.Equal(t, "a", m.Categories[0])
	assert.False(t, m.Equal(c))
}
