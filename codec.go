package folio

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/eringen/folio/post"
)

// cacheFormatVersion is bumped whenever the wire records change shape.
const cacheFormatVersion = 1

// Codec serializes cache records. Implementations must round-trip the wire
// records below; they never see CacheEntry directly.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// The wire records carry json tags only. fxamacker/cbor falls back to json
// tags, so the same records serve both codecs.

type cacheFile struct {
	Version           int                    `json:"version"`
	Entries           map[string]entryRecord `json:"entries"`
	AggregatesPending bool                   `json:"aggregates_pending,omitempty"`
}

type entryRecord struct {
	Deps       []dependencyRecord `json:"deps"`
	Title      string             `json:"title"`
	Date       dateRecord         `json:"date"`
	Categories []string           `json:"categories"`
	Mirror     string             `json:"mirror,omitempty"`
	Startpage  bool               `json:"startpage,omitempty"`
	URL        string             `json:"url"`
}

type dependencyRecord struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type dateRecord struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func toRecord(e CacheEntry) entryRecord {
	deps := make([]dependencyRecord, len(e.Deps))
	for i, d := range e.Deps {
		deps[i] = dependencyRecord{Input: d.Input, Output: d.Output}
	}
	m := e.Metadata
	return entryRecord{
		Deps:       deps,
		Title:      m.Title,
		Date:       dateRecord{Year: m.Date.Year, Month: m.Date.Month, Day: m.Date.Day},
		Categories: append([]string(nil), m.Categories...),
		Mirror:     m.Mirror,
		Startpage:  m.Startpage,
		URL:        e.URL,
	}
}

func fromRecord(r entryRecord) (CacheEntry, error) {
	if len(r.Deps) == 0 {
		return CacheEntry{}, fmt.Errorf("entry %q has no dependencies", r.URL)
	}
	deps := make([]Dependency, len(r.Deps))
	for i, d := range r.Deps {
		deps[i] = Dependency{Input: d.Input, Output: d.Output}
	}
	return CacheEntry{
		Deps: deps,
		Metadata: post.Metadata{
			Title:      r.Title,
			Date:       post.Date{Year: r.Date.Year, Month: r.Date.Month, Day: r.Date.Day},
			Categories: append([]string(nil), r.Categories...),
			Mirror:     r.Mirror,
			Startpage:  r.Startpage,
		},
		URL: r.URL,
	}, nil
}

// CBORCodec encodes records as CBOR with core deterministic encoding, so
// equal caches produce identical bytes.
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec creates the default binary codec.
func NewCBORCodec() *CBORCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("folio: cbor encoder options: %v", err))
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("folio: cbor decoder options: %v", err))
	}
	return &CBORCodec{enc: enc, dec: dec}
}

func (c *CBORCodec) Name() string { return "cbor" }

func (c *CBORCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBORCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

// JSONCodec writes indented JSON that can be inspected by hand.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// CodecByName resolves a codec from configuration. An empty name selects
// CBOR.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "cbor":
		return NewCBORCodec(), nil
	case "json":
		return JSONCodec{}, nil
	}
	return nil, fmt.Errorf("folio: unknown cache codec %q", name)
}
