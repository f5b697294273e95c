package folio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/post"
)

const firstPost = `date: 15-06-2021
categories: go, web

# First Post

Hello ![cat](img/cat.png) world.

## Details

Some details.
`

const secondPost = `date: 01-01-2020
categories: notes

# Second Post

Older text.
`

const brokenPost = `date: 01-02-2022
categories: x

# Broken

### Too deep
`

const mirroredPost = `date: 03-03-2021
categories: elsewhere
mirror: https://elsewhere.example/post

# Mirrored Post
`

func newTestApp(t *testing.T, opts ...Option) (*App, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := SiteConfig{
		Name:      "Notes",
		URL:       "https://example.com",
		InputDir:  "/site/posts",
		OutputDir: "/site/public",
		StaticDir: "/site/static",
		Cache:     CacheConfig{Path: "/site/.folio-cache"},
	}
	opts = append([]Option{
		WithFs(fs),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return New(cfg, opts...), fs
}

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func writePNG(t *testing.T, fs afero.Fs, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := range 20 {
		for y := range 10 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, afero.WriteFile(fs, name, buf.Bytes(), 0o644))
}

func readFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

// touch moves a file's modification time into the future so the next pass
// sees it as edited.
func touch(t *testing.T, fs afero.Fs, name string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, fs.Chtimes(name, future, future))
}

func TestBuildFullPass(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/first.md", firstPost)
	writeFile(t, fs, "/site/posts/second.md", secondPost)
	writePNG(t, fs, "/site/posts/img/cat.png")
	writeFile(t, fs, "/site/static/style.css", "body { color: red; }")

	report, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 2, report.Compiled)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Assets)
	assert.True(t, report.Aggregates)

	page := readFile(t, fs, "/site/public/2021/jun/15/first-post.html")
	assert.Contains(t, page, "First Post")
	assert.Contains(t, page, `id="details"`)
	assert.Contains(t, page, "img/cat.webp")

	ok, err := afero.Exists(fs, "/site/public/2021/jun/15/img/cat.webp")
	require.NoError(t, err)
	assert.True(t, ok, "referenced image is published next to the page")

	for _, name := range []string{"index.html", "archive.html", "404.html", "feed.xml", "sitemap.xml"} {
		ok, err := afero.Exists(fs, "/site/public/"+name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
	ok, err = afero.Exists(fs, "/site/public/static/style.css")
	require.NoError(t, err)
	assert.True(t, ok)

	index := readFile(t, fs, "/site/public/index.html")
	assert.Contains(t, index, "First Post")
	assert.Contains(t, index, "Second Post")
	assert.Contains(t, readFile(t, fs, "/site/public/feed.xml"), "<updated>2021-06-15T00:00:00Z</updated>")

	cache, err := OpenPostCache(fs, "/site/.folio-cache")
	require.NoError(t, err)
	assert.Equal(t, []string{"/site/posts/first.md", "/site/posts/second.md"}, cache.Inputs())
	e, _ := cache.Get("/site/posts/first.md")
	assert.Equal(t, []Dependency{
		{Input: "/site/posts/first.md", Output: "/site/public/2021/jun/15/first-post.html"},
		{Input: "/site/posts/img/cat.png", Output: "/site/public/2021/jun/15/img/cat.webp"},
	}, e.Deps)
}

func TestBuildSkipsUpToDateDocuments(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/first.md", firstPost)
	writeFile(t, fs, "/site/posts/second.md", secondPost)
	writePNG(t, fs, "/site/posts/img/cat.png")

	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)

	report, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Compiled)
	assert.Equal(t, 2, report.Skipped)
	assert.False(t, report.Aggregates, "nothing changed")

	// A newer asset recompiles only the document that references it.
	touch(t, fs, "/site/posts/img/cat.png")
	report, err = app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Compiled)
	assert.Equal(t, 1, report.Skipped)
	assert.False(t, report.Aggregates, "the entry itself did not change")

	report, err = app.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Compiled)
	assert.True(t, report.Aggregates)
}

func TestBuildRegeneratesMissingIndex(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/second.md", secondPost)

	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, fs.Remove("/site/public/index.html"))

	report, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, report.Aggregates)
	ok, _ := afero.Exists(fs, "/site/public/index.html")
	assert.True(t, ok)
}

func TestBuildFailureDefersAggregates(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/second.md", secondPost)
	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)

	writeFile(t, fs, "/site/posts/broken.md", brokenPost)
	writeFile(t, fs, "/site/posts/first.md", firstPost)
	writePNG(t, fs, "/site/posts/img/cat.png")

	report, err := app.Build(context.Background(), false)
	var be *BuildError
	require.True(t, errors.As(err, &be), "got %v", err)
	assert.Equal(t, []string{"/site/posts/broken.md"}, be.Failed)
	assert.Equal(t, 1, report.Compiled, "other documents are still compiled")
	assert.False(t, report.Aggregates)
	assert.NotContains(t, readFile(t, fs, "/site/public/index.html"), "First Post")

	cache, err := OpenPostCache(fs, "/site/.folio-cache")
	require.NoError(t, err)
	_, ok := cache.Get("/site/posts/first.md")
	assert.True(t, ok, "compiled documents are saved despite the failure")
	_, ok = cache.Get("/site/posts/broken.md")
	assert.False(t, ok)
	assert.True(t, cache.AggregatesPending())

	require.NoError(t, fs.Remove("/site/posts/broken.md"))
	report, err = app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Compiled)
	assert.True(t, report.Aggregates)
	assert.Contains(t, readFile(t, fs, "/site/public/index.html"), "First Post")

	cache, err = OpenPostCache(fs, "/site/.folio-cache")
	require.NoError(t, err)
	assert.False(t, cache.AggregatesPending())
}

func TestBuildKeepsEditsMadeDuringFailedPass(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/a.md", "date: 01-03-2022\ncategories: go\n\n# Edited\n\nBody.\n")
	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)

	writeFile(t, fs, "/site/posts/a.md", "date: 01-03-2022\ncategories: rust\n\n# Edited\n\nBody.\n")
	writeFile(t, fs, "/site/posts/broken.md", brokenPost)
	_, err = app.Build(context.Background(), false)
	require.Error(t, err)

	require.NoError(t, fs.Remove("/site/posts/broken.md"))
	report, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Compiled, "the edited page was already written")
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.Aggregates)

	cache, err := OpenPostCache(fs, "/site/.folio-cache")
	require.NoError(t, err)
	e, ok := cache.Get("/site/posts/a.md")
	require.True(t, ok)
	assert.Equal(t, []string{"rust"}, e.Metadata.Categories)
	assert.Contains(t, readFile(t, fs, "/site/public/feed.xml"), `term="rust"`)
}

func TestBuildRemovesVanishedDocuments(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/first.md", firstPost)
	writeFile(t, fs, "/site/posts/second.md", secondPost)
	writePNG(t, fs, "/site/posts/img/cat.png")
	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, fs.Remove("/site/posts/second.md"))
	report, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.True(t, report.Aggregates)

	ok, _ := afero.Exists(fs, "/site/public/2020/jan/01/second-post.html")
	assert.False(t, ok)
	assert.NotContains(t, readFile(t, fs, "/site/public/archive.html"), "Second Post")

	require.NoError(t, fs.Remove("/site/posts/first.md"))
	_, err = app.Build(context.Background(), false)
	require.NoError(t, err)
	ok, _ = afero.Exists(fs, "/site/public/feed.xml")
	assert.False(t, ok, "an empty site has no feed")
}

func TestBuildHeadlessPost(t *testing.T) {
	app, fs := newTestApp(t)
	writeFile(t, fs, "/site/posts/mirrored.md", mirroredPost)

	report, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Compiled)

	ok, _ := afero.Exists(fs, "/site/public/2021/mar/03/mirrored-post.html")
	assert.False(t, ok, "headless posts get no page")
	index := readFile(t, fs, "/site/public/index.html")
	assert.Contains(t, index, "https://elsewhere.example/post")
	assert.NotContains(t, readFile(t, fs, "/site/public/sitemap.xml"), "elsewhere.example")

	report, err = app.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
}

func dateOf(y, m, d int) post.Date {
	return post.Date{Year: y, Month: m, Day: d}
}

func TestIndexPosts(t *testing.T) {
	app, _ := newTestApp(t)
	app.Config.IndexSize = 2

	entries := []CacheEntry{
		feedEntry("c", "/c.html", dateOf(2022, 3, 1)),
		feedEntry("b", "/b.html", dateOf(2022, 2, 1)),
		feedEntry("a", "/a.html", dateOf(2022, 1, 1)),
	}
	got := app.indexPosts(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Title)
	assert.Equal(t, "b", got[1].Title)

	entries[2].Metadata.Startpage = true
	got = app.indexPosts(entries)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Title)
}

func TestBuildRecordsMetrics(t *testing.T) {
	m := NewMetrics()
	app, fs := newTestApp(t, WithMetrics(m))
	writeFile(t, fs, "/site/posts/second.md", secondPost)

	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)
	_, err = app.Build(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(resultCompiled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(resultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEntries))
}
