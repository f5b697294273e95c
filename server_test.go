package folio

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerServesBuiltSite(t *testing.T) {
	app, fs := newTestApp(t, WithMetrics(NewMetrics()))
	writeFile(t, fs, "/site/posts/second.md", secondPost)
	_, err := app.Build(context.Background(), false)
	require.NoError(t, err)

	e := app.NewServer()

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{"index", "/", http.StatusOK, "Second Post"},
		{"page", "/2020/jan/01/second-post.html", http.StatusOK, "Older text."},
		{"feed", "/feed.xml", http.StatusOK, "<feed"},
		{"missing", "/nope.html", http.StatusNotFound, "Not found"},
		{"metrics", "/metrics", http.StatusOK, "folio_documents_total"},
		{"request metrics", "/metrics", http.StatusOK, `folio_preview_requests_total{code="200"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestServerNotFoundWithoutBuild(t *testing.T) {
	app, _ := newTestApp(t)
	e := app.NewServer()

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
}

func TestServeStopsWhenListenFails(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	for _, watch := range []bool{true, false} {
		app, fs := newTestApp(t)
		writeFile(t, fs, "/site/posts/first.md", firstPost)
		app.Config.Addr = taken.Addr().String()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := app.Serve(ctx, watch)
		assert.NoError(t, ctx.Err(), "watch=%v: Serve must return before the deadline", watch)
		cancel()
		require.Error(t, err, "watch=%v", watch)
		assert.Contains(t, err.Error(), "preview server")
	}
}

func TestListenPort(t *testing.T) {
	assert.Equal(t, ":3000", listenPort(":3000"))
	assert.Equal(t, ":8080", listenPort("127.0.0.1:8080"))
	assert.Equal(t, "", listenPort("localhost"))
}
