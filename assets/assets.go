// Package assets turns the files a site references into their published
// form: raster images are re-encoded as WebP, text formats are minified and
// everything else is copied.
package assets

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
)

const (
	// ImageExt is the extension of every optimized image.
	ImageExt = ".webp"

	defaultMaxWidth = 800
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// IsImage reports whether name has a raster image extension. The check is
// case-insensitive.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(path.Ext(name))]
}

// OutputName returns the published name of an asset. Images get the WebP
// extension; other names are returned unchanged. Both slash and OS
// separators are accepted.
func OutputName(name string) string {
	if !IsImage(name) {
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name)) + ImageExt
}

// Transformer writes optimized copies of assets.
type Transformer struct {
	fs       afero.Fs
	maxWidth int
	minify   bool
	m        *minify.M
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithMaxWidth sets the width images are downscaled to. Narrower images keep
// their size.
func WithMaxWidth(px int) Option {
	return func(t *Transformer) {
		if px > 0 {
			t.maxWidth = px
		}
	}
}

// WithMinify toggles minification of text assets.
func WithMinify(on bool) Option {
	return func(t *Transformer) {
		t.minify = on
	}
}

// NewTransformer creates a Transformer working on fsys.
func NewTransformer(fsys afero.Fs, opts ...Option) *Transformer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	t := &Transformer{
		fs:       fsys,
		maxWidth: defaultMaxWidth,
		minify:   true,
		m:        newMinifier(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform publishes the asset at in to out, creating parent directories
// as needed.
func (t *Transformer) Transform(in, out string) error {
	if err := t.fs.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("assets: create dir for %s: %w", out, err)
	}

	src, err := t.fs.Open(in)
	if err != nil {
		return fmt.Errorf("assets: open %s: %w", in, err)
	}
	defer src.Close()

	if IsImage(in) {
		data, err := processImage(src, t.maxWidth)
		if err != nil {
			return fmt.Errorf("assets: %s: %w", in, err)
		}
		return t.write(out, data)
	}

	if mediatype, ok := minifiable(in); ok && t.minify {
		data, err := io.ReadAll(src)
		if err != nil {
			return fmt.Errorf("assets: read %s: %w", in, err)
		}
		minified, err := t.m.Bytes(mediatype, data)
		if err != nil {
			return fmt.Errorf("assets: minify %s: %w", in, err)
		}
		return t.write(out, minified)
	}

	dst, err := t.fs.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("assets: create %s: %w", out, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("assets: copy %s: %w", in, err)
	}
	return dst.Close()
}

// MinifyHTML minifies a generated page. With minification disabled the page
// is returned unchanged.
func (t *Transformer) MinifyHTML(page []byte) ([]byte, error) {
	if !t.minify {
		return page, nil
	}
	out, err := t.m.Bytes(mediaHTML, page)
	if err != nil {
		return nil, fmt.Errorf("assets: minify html: %w", err)
	}
	return out, nil
}

func (t *Transformer) write(name string, data []byte) error {
	if err := afero.WriteFile(t.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("assets: write %s: %w", name, err)
	}
	return nil
}
