package folio

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAt(t *testing.T, fs afero.Fs, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(path), 0o644))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func TestIsStale(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  *time.Time
		output *time.Time
		want   bool
	}{
		{"output missing", ptr(base), nil, true},
		{"input missing forces a rebuild", nil, ptr(base), true},
		{"input newer", ptr(base.Add(time.Second)), ptr(base), true},
		{"same time", ptr(base), ptr(base), false},
		{"output newer", ptr(base), ptr(base.Add(time.Hour)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.input != nil {
				writeAt(t, fs, "/in/a.md", *tt.input)
			}
			if tt.output != nil {
				writeAt(t, fs, "/out/a.html", *tt.output)
			}
			got, err := IsStale(FsModTimer{Fs: fs}, []Dependency{{Input: "/in/a.md", Output: "/out/a.html"}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStaleAnyDependency(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fs := afero.NewMemMapFs()
	writeAt(t, fs, "/in/a.md", base)
	writeAt(t, fs, "/out/a.html", base.Add(time.Minute))
	writeAt(t, fs, "/in/cat.png", base.Add(time.Hour))
	writeAt(t, fs, "/out/cat.webp", base.Add(time.Minute))

	deps := []Dependency{
		{Input: "/in/a.md", Output: "/out/a.html"},
		{Input: "/in/cat.png", Output: "/out/cat.webp"},
	}
	stale, err := IsStale(FsModTimer{Fs: fs}, deps)
	require.NoError(t, err)
	assert.True(t, stale, "a newer asset makes the document stale")

	writeAt(t, fs, "/out/cat.webp", base.Add(2*time.Hour))
	stale, err = IsStale(FsModTimer{Fs: fs}, deps)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestIsStaleWhenAssetRemoved(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fs := afero.NewMemMapFs()
	writeAt(t, fs, "/in/a.md", base)
	writeAt(t, fs, "/out/a.html", base.Add(time.Minute))
	writeAt(t, fs, "/out/cat.webp", base.Add(time.Minute))

	// cat.png was deleted after the last build; every output is still newer
	// than every surviving input.
	stale, err := IsStale(FsModTimer{Fs: fs}, []Dependency{
		{Input: "/in/a.md", Output: "/out/a.html"},
		{Input: "/in/cat.png", Output: "/out/cat.webp"},
	})
	require.NoError(t, err)
	assert.True(t, stale)
}

type failingModTimer struct{}

func (failingModTimer) ModTime(string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("permission denied")
}

func TestIsStalePropagatesErrors(t *testing.T) {
	_, err := IsStale(failingModTimer{}, []Dependency{{Input: "/a", Output: "/b"}})
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
