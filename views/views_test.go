package views

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://example.com", nil, "https://example.com/"},
		{"https://example.com/", []string{"2021/jun/15/post.html"}, "https://example.com/2021/jun/15/post.html"},
		{"https://example.com/blog", []string{"/archive.html"}, "https://example.com/blog/archive.html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildURL(tt.base, tt.segments...))
	}
}

func TestElements(t *testing.T) {
	tests := []struct {
		name string
		c    templ.Component
		want string
	}{
		{"text escapes", Text("a < b & c"), "a &lt; b &amp; c"},
		{"subheading", Subheading("intro", "Intro"), `<h2 id="intro"><a class="anchor" href="#intro">Intro</a></h2>`},
		{"citation", Citation([]int{1, 3}), `<sup class="cite">[<a href="#ref-1">1</a>, <a href="#ref-3">3</a>]</sup>`},
		{"table", Table(2, "<tr></tr>", "Results"), `<figure class="table" id="table-2"><table><tr></tr></table><figcaption><span class="caption-label">Table 2:</span> Results</figcaption></figure>`},
		{"blank line", BlankLine(), `<span class="blank-line"></span>`},
		{"inline figure", Figure(1, "a.jpg", "Cat", true), `<span class="figure" id="figure-1"><img src="a.jpg" alt="Figure 1" loading="lazy" decoding="async"/><span class="figcaption"><span class="caption-label">Figure 1:</span> Cat</span></span>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.c))
		})
	}
}

func TestBibliography(t *testing.T) {
	got := render(t, Bibliography([]Reference{{Number: 1, Content: "Knuth"}, {Number: 2, Content: "Dijkstra"}}))
	assert.Equal(t, `<section class="bibliography"><h2 id="references">References</h2><ol>`+
		`<li id="ref-1" value="1">Knuth</li><li id="ref-2" value="2">Dijkstra</li></ol></section>`, got)
}

func TestBlogPostingJsonLD(t *testing.T) {
	out := BlogPostingJsonLD(PostHead{
		Site:     SiteConfig{Name: "Notes", URL: "https://example.com", Author: "Ada"},
		Title:    "Hello",
		URL:      "/2021/jun/15/hello.html",
		Date:     "2021-06-15",
		Keywords: "go, web",
	})
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "BlogPosting", data["@type"])
	assert.Equal(t, "https://example.com/2021/jun/15/hello.html", data["url"])
	assert.Equal(t, "go, web", data["keywords"])
}

func TestPostListMarksExternalPosts(t *testing.T) {
	out := render(t, Index(SiteConfig{Name: "Notes", URL: "https://example.com"}, []PostSummary{
		{Title: "Here", URL: "/here.html", Date: "2021-01-01"},
		{Title: "There", URL: "https://elsewhere.example/there", Date: "2021-01-02", External: true},
	}))
	assert.Contains(t, out, `<a href="/here.html">Here</a>`)
	assert.Contains(t, out, `<a href="https://elsewhere.example/there" rel="noopener" target="_blank">There</a>`)
}
