package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/eringen/folio/assets"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/post"
	"github.com/eringen/folio/views"
)

// BuildError is returned by a pass in which at least one document or asset
// failed. The remaining documents were still compiled.
type BuildError struct {
	Failed []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("folio: %d file(s) failed to build: %s", len(e.Failed), strings.Join(e.Failed, ", "))
}

// BuildReport summarizes one pass.
type BuildReport struct {
	ID         string
	Compiled   int
	Skipped    int
	Removed    int
	Assets     int
	Failed     []string
	Aggregates bool // index, archive, feed and sitemap were regenerated
	Duration   time.Duration
}

// Build runs one pass: every stale or new document is compiled, documents
// that disappeared are dropped, and the aggregate pages and cache are
// written when anything changed. With force every document is recompiled.
//
// A pass with failures returns a *BuildError. It still saves the entries of
// the documents that compiled, marked so that the next clean pass
// regenerates the aggregate pages, which are not written on failure.
func (a *App) Build(ctx context.Context, force bool) (*BuildReport, error) {
	start := time.Now()
	report := &BuildReport{ID: uuid.NewString()}
	log := a.logger.With("build_id", report.ID)
	log.Info("build started", "input", a.Config.InputDir, "output", a.Config.OutputDir, "force", force)

	codec, err := CodecByName(a.Config.Cache.Codec)
	if err != nil {
		return nil, err
	}
	cache, err := OpenPostCache(a.fs, a.Config.Cache.Path,
		WithCodec(codec),
		WithCacheLogger(log),
		WithResetOnCorrupt(a.Config.Cache.ResetOnCorrupt),
	)
	if err != nil {
		return nil, err
	}

	docs, err := discover(a.fs, a.Config.InputDir)
	if err != nil {
		return nil, err
	}

	mt := FsModTimer{Fs: a.fs}
	changed := force
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		seen[doc] = true
		if !force {
			if e, ok := cache.Get(doc); ok {
				stale, err := IsStale(mt, e.Deps)
				if err != nil {
					log.Warn("staleness check failed, rebuilding", "path", doc, "error", err)
				} else if !stale {
					report.Skipped++
					a.metrics.incDocument(resultSkipped)
					continue
				}
			}
		}

		entry, err := a.compile(ctx, doc, log)
		if err != nil {
			log.Error("compile failed", "path", doc, "error", err)
			report.Failed = append(report.Failed, doc)
			a.metrics.incDocument(resultFailed)
			continue
		}
		if cache.Insert(doc, entry) {
			changed = true
		}
		report.Compiled++
		a.metrics.incDocument(resultCompiled)
		log.Debug("compiled", "path", doc, "url", entry.URL)
	}

	for _, input := range cache.Inputs() {
		if seen[input] {
			continue
		}
		e, _ := cache.Get(input)
		cache.Remove(input)
		changed = true
		report.Removed++
		a.metrics.incDocument(resultRemoved)
		if !e.Headless() {
			a.removeOutput(e.Deps[0].Output, log)
		}
		log.Info("document removed", "path", input)
	}

	a.publishStatic(report, force, log)

	if len(report.Failed) > 0 {
		// Entries of documents that did compile are kept; only the
		// aggregate pages wait for a clean pass.
		if changed || cache.AggregatesPending() {
			cache.SetAggregatesPending(true)
			if err := cache.Save(a.Config.Cache.Path); err != nil {
				log.Error("saving cache failed", "error", err)
			}
		}
		report.Duration = time.Since(start)
		a.metrics.observePass(report.Duration, true, cache.Len())
		log.Error("build failed", "failed", len(report.Failed), "compiled", report.Compiled, "skipped", report.Skipped, "duration", report.Duration)
		return report, &BuildError{Failed: report.Failed}
	}

	if cache.AggregatesPending() {
		changed = true
	}
	if !changed {
		if exists, _ := afero.Exists(a.fs, filepath.Join(a.Config.OutputDir, "index.html")); !exists {
			changed = true
		}
	}
	if changed {
		if err := a.writeAggregates(ctx, cache.Resources()); err != nil {
			return report, err
		}
		cache.SetAggregatesPending(false)
		if err := cache.Save(a.Config.Cache.Path); err != nil {
			return report, err
		}
		report.Aggregates = true
	}

	report.Duration = time.Since(start)
	a.metrics.observePass(report.Duration, false, cache.Len())
	log.Info("build finished",
		"compiled", report.Compiled,
		"skipped", report.Skipped,
		"removed", report.Removed,
		"assets", report.Assets,
		"aggregates", report.Aggregates,
		"duration", report.Duration,
	)
	return report, nil
}

// compile renders one document and publishes the assets it references.
func (a *App) compile(ctx context.Context, doc string, log *slog.Logger) (CacheEntry, error) {
	data, err := afero.ReadFile(a.fs, doc)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("read %s: %w", doc, err)
	}
	p, err := post.New(data)
	if err != nil {
		return CacheEntry{}, err
	}

	basedir := filepath.Dir(doc)
	if p.Headless() {
		// No page is generated. The cache file stands in as the output so
		// that editing the document after the last save marks it stale.
		return BuildEntry(p, nil, DocumentPaths{
			Input:      doc,
			Output:     a.Config.Cache.Path,
			InputBase:  basedir,
			OutputBase: a.Config.OutputDir,
		}), nil
	}

	session := markdown.NewSession(a.fs, markdown.WithSite(a.Config.Site()))
	body, err := session.RenderBody(ctx, p.Content(), basedir)
	if err != nil {
		return CacheEntry{}, err
	}
	header, err := session.RenderHeader(ctx, p)
	if err != nil {
		return CacheEntry{}, err
	}
	footer, err := session.RenderFooter(ctx)
	if err != nil {
		return CacheEntry{}, err
	}

	out := p.OutputFile(a.Config.OutputDir)
	page, err := a.assets.MinifyHTML([]byte(header + body + footer))
	if err != nil {
		return CacheEntry{}, err
	}
	if err := a.writeOutput(out, page); err != nil {
		return CacheEntry{}, err
	}

	entry := BuildEntry(p, session.FileMentions(), DocumentPaths{
		Input:      doc,
		Output:     out,
		InputBase:  basedir,
		OutputBase: filepath.Dir(out),
	})
	mt := FsModTimer{Fs: a.fs}
	for _, dep := range entry.Deps[1:] {
		stale, err := IsStale(mt, []Dependency{dep})
		if err != nil {
			return CacheEntry{}, err
		}
		if !stale {
			continue
		}
		if err := a.assets.Transform(dep.Input, dep.Output); err != nil {
			// Without its page the document stays stale until the asset
			// can be published.
			a.removeOutput(out, log)
			return CacheEntry{}, err
		}
		a.metrics.incAsset(resultCompiled)
		log.Debug("asset published", "input", dep.Input, "output", dep.Output)
	}
	return entry, nil
}

// publishStatic transforms the files of the static directory into
// <output>/static.
func (a *App) publishStatic(report *BuildReport, force bool, log *slog.Logger) {
	files, err := discoverStatic(a.fs, a.Config.StaticDir)
	if err != nil {
		log.Error("static files", "error", err)
		report.Failed = append(report.Failed, a.Config.StaticDir)
		return
	}
	mt := FsModTimer{Fs: a.fs}
	outDir := filepath.Join(a.Config.OutputDir, "static")
	for _, rel := range files {
		dep := Dependency{
			Input:  filepath.Join(a.Config.StaticDir, rel),
			Output: filepath.Join(outDir, assets.OutputName(rel)),
		}
		if !force {
			stale, err := IsStale(mt, []Dependency{dep})
			if err == nil && !stale {
				a.metrics.incAsset(resultSkipped)
				continue
			}
		}
		if err := a.assets.Transform(dep.Input, dep.Output); err != nil {
			log.Error("static asset failed", "path", dep.Input, "error", err)
			report.Failed = append(report.Failed, dep.Input)
			a.metrics.incAsset(resultFailed)
			continue
		}
		report.Assets++
		a.metrics.incAsset(resultCompiled)
	}
}

// writeAggregates regenerates the pages built from the whole entry set.
// entries must be sorted newest first.
func (a *App) writeAggregates(ctx context.Context, entries []CacheEntry) error {
	site := a.Config.Site()
	out := a.Config.OutputDir

	all := make([]views.PostSummary, len(entries))
	for i, e := range entries {
		all[i] = e.Summary()
	}

	if err := a.writePage(ctx, filepath.Join(out, "index.html"), a.Views.Index(site, a.indexPosts(entries))); err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	if err := a.writePage(ctx, filepath.Join(out, "archive.html"), a.Views.Archive(site, all)); err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	if err := a.writePage(ctx, filepath.Join(out, "404.html"), a.Views.NotFound(site)); err != nil {
		return fmt.Errorf("folio: %w", err)
	}

	feedPath := filepath.Join(out, "feed.xml")
	feed, err := RenderFeed(site, entries)
	if err != nil {
		return err
	}
	if feed == nil {
		if err := a.fs.Remove(feedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("folio: remove empty feed: %w", err)
		}
	} else if err := a.writeOutput(feedPath, feed); err != nil {
		return fmt.Errorf("folio: %w", err)
	}

	sitemap, err := RenderSitemap(site, entries)
	if err != nil {
		return err
	}
	if err := a.writeOutput(filepath.Join(out, "sitemap.xml"), sitemap); err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	return nil
}

// indexPosts selects the posts of the landing page: the ones flagged for the
// start page, or the newest IndexSize posts when none is flagged.
func (a *App) indexPosts(entries []CacheEntry) []views.PostSummary {
	var flagged []views.PostSummary
	for _, e := range entries {
		if e.Metadata.Startpage {
			flagged = append(flagged, e.Summary())
		}
	}
	if len(flagged) > 0 {
		return flagged
	}
	n := min(len(entries), a.Config.IndexSize)
	out := make([]views.PostSummary, n)
	for i := range n {
		out[i] = entries[i].Summary()
	}
	return out
}

func (a *App) removeOutput(name string, log *slog.Logger) {
	if err := a.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not remove stale output", "path", name, "error", err)
	}
}
