package folio

import (
	"path/filepath"
	"slices"

	"github.com/eringen/folio/assets"
	"github.com/eringen/folio/post"
)

// BuildEntry assembles the cache entry of a compiled document. mentions are
// the document-relative files the body referenced; they are sorted so equal
// inputs always give equal entries.
func BuildEntry(p *post.Post, mentions []string, doc DocumentPaths) CacheEntry {
	sorted := slices.Clone(mentions)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	deps := make([]Dependency, 0, len(sorted)+1)
	deps = append(deps, Dependency{Input: doc.Input, Output: doc.Output})
	for _, rel := range sorted {
		native := filepath.FromSlash(rel)
		deps = append(deps, Dependency{
			Input:  filepath.Join(doc.InputBase, native),
			Output: filepath.Join(doc.OutputBase, assets.OutputName(native)),
		})
	}
	return CacheEntry{
		Deps:     deps,
		Metadata: p.Metadata.Clone(),
		URL:      p.URL(),
	}
}
