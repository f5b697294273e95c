package folio

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/post"
	"github.com/eringen/folio/views"
)

var testSite = views.SiteConfig{
	Name:   "Notes",
	URL:    "https://example.com",
	Author: "Ada",
}

func feedEntry(title, url string, date post.Date) CacheEntry {
	return CacheEntry{
		Deps:     []Dependency{{Input: "/in/" + title + ".md", Output: "/out" + url}},
		Metadata: post.Metadata{Title: title, Date: date, Categories: []string{"go"}},
		URL:      url,
	}
}

func TestRenderFeedUsesNewestDate(t *testing.T) {
	entries := []CacheEntry{
		feedEntry("Older", "/2020/jan/01/older.html", post.Date{Year: 2020, Month: 1, Day: 1}),
		feedEntry("Newer", "/2021/jun/15/newer.html", post.Date{Year: 2021, Month: 6, Day: 15}),
	}

	out, err := RenderFeed(testSite, entries)
	require.NoError(t, err)
	require.NotNil(t, out)

	var feed atomFeed
	require.NoError(t, xml.Unmarshal(out, &feed))
	assert.Equal(t, "2021-06-15T00:00:00Z", feed.Updated)
	assert.Equal(t, "Notes", feed.Title)
	require.Len(t, feed.Entries, 2)
	assert.Equal(t, "Older", feed.Entries[0].Title, "entries keep the given order")
	assert.Equal(t, "https://example.com/2021/jun/15/newer.html", feed.Entries[1].Link.Href)
	assert.Equal(t, "2020-01-01T00:00:00Z", feed.Entries[0].Published)
	require.NotNil(t, feed.Author)
	assert.Equal(t, "Ada", feed.Author.Name)
}

func TestRenderFeedEmpty(t *testing.T) {
	out, err := RenderFeed(testSite, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRenderSitemapSkipsHeadless(t *testing.T) {
	mirrored := feedEntry("Mirrored", "https://elsewhere.example/m", post.Date{Year: 2021, Month: 1, Day: 1})
	mirrored.Metadata.Mirror = "https://elsewhere.example/m"
	entries := []CacheEntry{
		feedEntry("Local", "/2021/jan/02/local.html", post.Date{Year: 2021, Month: 1, Day: 2}),
		mirrored,
	}

	out, err := RenderSitemap(testSite, entries)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<loc>https://example.com/2021/jan/02/local.html</loc>")
	assert.NotContains(t, string(out), "elsewhere.example")
}
