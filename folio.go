// Package folio is an incremental static blog compiler. It turns a tree of
// Markdown posts into a website and keeps a dependency-tracked cache so
// that a rebuild only touches the posts and assets that changed.
//
// Aggregate page templates are supplied through the ViewFuncs struct; the
// defaults from the views package are used when none are given.
package folio

import (
	"log/slog"

	"github.com/a-h/templ"
	"github.com/spf13/afero"

	"github.com/eringen/folio/assets"
	"github.com/eringen/folio/views"
)

// ViewFuncs holds the templ components used for the aggregate pages.
type ViewFuncs struct {
	Index    func(site views.SiteConfig, posts []views.PostSummary) templ.Component
	Archive  func(site views.SiteConfig, posts []views.PostSummary) templ.Component
	NotFound func(site views.SiteConfig) templ.Component
}

// DefaultViews returns the built-in aggregate templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Index:    views.Index,
		Archive:  views.Archive,
		NotFound: views.NotFound,
	}
}

// App is the central folio application. It wires together the filesystem,
// cache, asset transformer and templates.
type App struct {
	Config SiteConfig
	Views  ViewFuncs

	fs      afero.Fs
	logger  *slog.Logger
	metrics *Metrics
	assets  *assets.Transformer
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Views:  DefaultViews(),
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	def := DefaultViews()
	if a.Views.Index == nil {
		a.Views.Index = def.Index
	}
	if a.Views.Archive == nil {
		a.Views.Archive = def.Archive
	}
	if a.Views.NotFound == nil {
		a.Views.NotFound = def.NotFound
	}

	a.assets = assets.NewTransformer(a.fs,
		assets.WithMaxWidth(a.Config.Images.MaxWidth),
		assets.WithMinify(a.Config.Minify),
	)
	return a
}

// Metrics returns the metrics the App records to, or nil.
func (a *App) Metrics() *Metrics {
	return a.metrics
}
