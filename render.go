package folio

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
)

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderComponent renders cmp and minifies the result when enabled.
func (a *App) renderComponent(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return a.assets.MinifyHTML(buf.Bytes())
}

// writeOutput writes data below the output directory, creating parent
// directories.
func (a *App) writeOutput(name string, data []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", name, err)
	}
	if err := afero.WriteFile(a.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (a *App) writePage(ctx context.Context, name string, cmp templ.Component) error {
	data, err := a.renderComponent(ctx, cmp)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return a.writeOutput(name, data)
}
