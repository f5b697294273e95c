package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
)

// NewServer builds the preview server for the generated site. It serves
// the output directory, answers unknown paths with the generated 404 page
// and exposes /metrics when metrics are enabled.
func (a *App) NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	site := afero.NewBasePathFs(a.fs, a.Config.OutputDir)
	e.HTTPErrorHandler = a.httpErrorHandler(e, site)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			a.logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if a.metrics != nil {
		e.Use(a.metrics.Middleware())
	}
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(cacheControlMiddleware)

	if a.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	}
	e.GET("/*", func(c echo.Context) error {
		return serveFile(c, site)
	})
	return e
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Previews must always reflect the latest build.
		c.Response().Header().Set("Cache-Control", "no-cache")
		return next(c)
	}
}

// serveFile serves a file of the generated site. Directories resolve to
// their index.html.
func serveFile(c echo.Context, site afero.Fs) error {
	name := path.Clean("/" + c.Param("*"))
	info, err := site.Stat(name)
	if err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
		info, err = site.Stat(name)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return echo.ErrNotFound
		}
		return err
	}
	f, err := site.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), f)
	return nil
}

func (a *App) httpErrorHandler(e *echo.Echo, site afero.Fs) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			if page, rerr := afero.ReadFile(site, "/404.html"); rerr == nil {
				_ = c.HTMLBlob(http.StatusNotFound, page)
				return
			}
			_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config.Site()))
			return
		}
		if he == nil || he.Code >= 500 {
			a.logger.Error("server error", "uri", c.Request().RequestURI, "error", err)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// Serve runs the preview server until ctx is cancelled or the server stops.
// With watch the site is rebuilt whenever a source changes; otherwise it is
// built once before serving.
func (a *App) Serve(ctx context.Context, watch bool) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	e := a.NewServer()
	srvErr := make(chan error, 1)
	go func() {
		defer stop()
		a.logger.Info("preview server listening", "addr", a.Config.Addr, "url", "http://localhost"+listenPort(a.Config.Addr))
		err := e.Start(a.Config.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		srvErr <- err
	}()

	var runErr error
	if watch {
		runErr = a.Watch(runCtx)
	} else {
		if _, err := a.Build(runCtx, false); err != nil {
			a.logger.Error("initial build failed", "error", err)
		}
		<-runCtx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("preview server shutdown", "error", err)
	}
	if err := <-srvErr; err != nil {
		return fmt.Errorf("folio: preview server: %w", err)
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func listenPort(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ""
}
