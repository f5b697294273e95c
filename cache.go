package folio

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// ErrCorruptCache is returned when a persisted cache cannot be decoded.
var ErrCorruptCache = errors.New("folio: corrupt cache")

// PostCache maps each document's path to the entry of its last successful
// compilation. It is used by a single build pass at a time and is not safe
// for concurrent use.
type PostCache struct {
	entries map[string]CacheEntry
	pending bool

	fs             afero.Fs
	codec          Codec
	logger         *slog.Logger
	resetOnCorrupt bool
}

// CacheOption configures a PostCache.
type CacheOption func(*PostCache)

// WithCodec sets the serialization format (default CBOR).
func WithCodec(c Codec) CacheOption {
	return func(pc *PostCache) {
		if c != nil {
			pc.codec = c
		}
	}
}

// WithCacheLogger sets the logger for cache warnings.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(pc *PostCache) {
		if l != nil {
			pc.logger = l
		}
	}
}

// WithResetOnCorrupt makes OpenPostCache discard an undecodable cache with a
// warning instead of failing.
func WithResetOnCorrupt(reset bool) CacheOption {
	return func(pc *PostCache) {
		pc.resetOnCorrupt = reset
	}
}

// NewPostCache creates an empty cache.
func NewPostCache(fsys afero.Fs, opts ...CacheOption) *PostCache {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	c := &PostCache{
		entries: make(map[string]CacheEntry),
		fs:      fsys,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.codec == nil {
		c.codec = NewCBORCodec()
	}
	return c
}

// OpenPostCache loads the cache persisted at path. A missing cache is not
// an error and yields an empty cache.
func OpenPostCache(fsys afero.Fs, path string, opts ...CacheOption) (*PostCache, error) {
	c := NewPostCache(fsys, opts...)

	state, err := c.load(path)
	if err != nil {
		if errors.Is(err, ErrCorruptCache) && c.resetOnCorrupt {
			c.logger.Warn("discarding unreadable cache", "path", path, "error", err)
			return c, nil
		}
		return nil, fmt.Errorf("folio: open cache: %w", err)
	}
	c.entries = state.Entries
	c.pending = state.AggregatesPending
	return c, nil
}

func (c *PostCache) load(path string) (CacheState, error) {
	store, err := OpenStore(c.fs, path, c.codec)
	if err != nil {
		return CacheState{}, err
	}
	defer store.Close()
	return store.Load()
}

// Save persists every entry to path.
func (c *PostCache) Save(path string) error {
	store, err := OpenStore(c.fs, path, c.codec)
	if err != nil {
		return fmt.Errorf("folio: save cache: %w", err)
	}
	defer store.Close()
	if err := store.Save(CacheState{Entries: c.entries, AggregatesPending: c.pending}); err != nil {
		return fmt.Errorf("folio: save cache: %w", err)
	}
	return nil
}

// Clear drops every entry.
func (c *PostCache) Clear() {
	clear(c.entries)
}

// SetAggregatesPending records whether the entries changed since the
// aggregate pages were last written. The flag is persisted by Save.
func (c *PostCache) SetAggregatesPending(pending bool) {
	c.pending = pending
}

// AggregatesPending reports whether a previous pass changed entries without
// regenerating the aggregate pages.
func (c *PostCache) AggregatesPending() bool {
	return c.pending
}

// Get returns the entry recorded for input.
func (c *PostCache) Get(input string) (CacheEntry, bool) {
	e, ok := c.entries[input]
	return e, ok
}

// Insert records e for input and reports whether anything changed. An
// entry equal to the recorded one is not stored again.
func (c *PostCache) Insert(input string, e CacheEntry) bool {
	if len(e.Deps) == 0 {
		panic("folio: cache entry without dependencies")
	}
	if old, ok := c.entries[input]; ok && old.Equal(e) {
		return false
	}
	c.entries[input] = e
	return true
}

// Remove deletes the entry for input and reports whether there was one.
func (c *PostCache) Remove(input string) bool {
	if _, ok := c.entries[input]; !ok {
		return false
	}
	delete(c.entries, input)
	return true
}

// Len returns the number of entries.
func (c *PostCache) Len() int {
	return len(c.entries)
}

// Inputs returns the recorded document paths, sorted.
func (c *PostCache) Inputs() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Resources returns all entries newest first. Entries of the same day are
// ordered by title and then URL, so the order never depends on map
// iteration.
func (c *PostCache) Resources() []CacheEntry {
	out := slices.Collect(maps.Values(c.entries))
	slices.SortFunc(out, compareEntries)
	return out
}

func compareEntries(a, b CacheEntry) int {
	if d := b.Metadata.Date.Compare(a.Metadata.Date); d != 0 {
		return d
	}
	if d := strings.Compare(a.Metadata.Title, b.Metadata.Title); d != 0 {
		return d
	}
	return cmp.Compare(a.URL, b.URL)
}
