package folio

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document outcomes of a build pass.
const (
	resultCompiled = "compiled"
	resultSkipped  = "skipped"
	resultFailed   = "failed"
	resultRemoved  = "removed"
)

// Metrics records build statistics on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry     *prom.Registry
	documents    *prom.CounterVec
	assets       *prom.CounterVec
	passes       *prom.CounterVec
	passDuration prom.Histogram
	cacheEntries prom.Gauge
	requests     echo.MiddlewareFunc
}

// NewMetrics constructs and registers the build metrics.
func NewMetrics() *Metrics {
	reg := prom.NewRegistry()
	m := &Metrics{
		registry: reg,
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "folio",
			Name:      "documents_total",
			Help:      "Documents handled by build passes, by result",
		}, []string{"result"}),
		assets: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "folio",
			Name:      "assets_total",
			Help:      "Assets handled by build passes, by result",
		}, []string{"result"}),
		passes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "folio",
			Name:      "build_passes_total",
			Help:      "Build passes by outcome",
		}, []string{"outcome"}),
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "folio",
			Name:      "build_duration_seconds",
			Help:      "Duration of a build pass",
			Buckets:   prom.DefBuckets,
		}),
		cacheEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: "folio",
			Name:      "cache_entries",
			Help:      "Entries in the build cache after the last pass",
		}),
	}
	reg.MustRegister(m.documents, m.assets, m.passes, m.passDuration, m.cacheEntries)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	m.requests = echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:                 "folio",
		Subsystem:                 "preview",
		Registerer:                reg,
		DoNotUseRequestPathFor404: true,
	})
	return m
}

func (m *Metrics) incDocument(result string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(result).Inc()
}

func (m *Metrics) incAsset(result string) {
	if m == nil {
		return
	}
	m.assets.WithLabelValues(result).Inc()
}

func (m *Metrics) observePass(d time.Duration, failed bool, entries int) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failed"
	}
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(d.Seconds())
	m.cacheEntries.Set(float64(entries))
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}

// Middleware records preview server requests on the same registry.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return m.requests
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
