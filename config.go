package folio

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/eringen/folio/views"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`               // Site name (default "Blog")
	URL         string `mapstructure:"url" yaml:"url"`                 // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description" yaml:"description"` // Site description for the index and meta tags
	Author      string `mapstructure:"author" yaml:"author"`           // Author name for JSON-LD and the feed

	InputDir  string `mapstructure:"input_dir" yaml:"input_dir"`   // Markdown sources (default "posts")
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"` // Generated site (default "public")
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"` // Assets copied into the output (default "static")

	Cache  CacheConfig `mapstructure:"cache" yaml:"cache"`
	Images ImageConfig `mapstructure:"images" yaml:"images"`

	IndexSize int    `mapstructure:"index_size" yaml:"index_size"` // Posts on the index page (default 10)
	Minify    bool   `mapstructure:"minify" yaml:"minify"`         // Minify pages and text assets
	Addr      string `mapstructure:"addr" yaml:"addr"`             // Preview server address (default ":3000")
}

// CacheConfig locates the build cache.
type CacheConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`                         // default ".folio-cache"; .db/.sqlite selects SQLite
	Codec          string `mapstructure:"codec" yaml:"codec"`                       // "cbor" (default) or "json"
	ResetOnCorrupt bool   `mapstructure:"reset_on_corrupt" yaml:"reset_on_corrupt"` // warn and start empty instead of failing
}

// ImageConfig controls image optimization.
type ImageConfig struct {
	MaxWidth int `mapstructure:"max_width" yaml:"max_width"` // default 800
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.InputDir == "" {
		c.InputDir = "posts"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = ".folio-cache"
	}
	if c.Cache.Codec == "" {
		c.Cache.Codec = "cbor"
	}
	if c.Images.MaxWidth <= 0 {
		c.Images.MaxWidth = 800
	}
	if c.IndexSize <= 0 {
		c.IndexSize = 10
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() SiteConfig {
	c := SiteConfig{Minify: true}
	c.setDefaults()
	return c
}

// Site returns the settings page templates need.
func (c SiteConfig) Site() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithFs sets the filesystem the build reads and writes (default: the OS
// filesystem).
func WithFs(fsys afero.Fs) Option {
	return func(a *App) {
		if fsys != nil {
			a.fs = fsys
		}
	}
}

// WithLogger sets the structured logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records build statistics on m.
func WithMetrics(m *Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithViews replaces the aggregate page templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
