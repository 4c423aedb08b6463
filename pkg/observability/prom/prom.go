// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/observability"
)

// Namespace prefixes every metric name.
const Namespace = "splicer"

// Metrics holds all Prometheus metrics for the verifier.
type Metrics struct {
	RenderDuration *prometheus.HistogramVec
	RenderErrors   *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec
	Verdicts      *prometheus.CounterVec
	DiffPercent   prometheus.Histogram

	CatalogFetches  *prometheus.CounterVec
	CatalogDuration prometheus.Histogram
	CatalogStyles   *prometheus.GaugeVec
	CatalogJoins    *prometheus.CounterVec

	CacheOps *prometheus.CounterVec
	CacheSet *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Program render latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"program"}),
		RenderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "render",
			Name:      "errors_total",
			Help:      "Failed renders by program and error code",
		}, []string{"program", "code"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "gate",
			Name:      "stage_duration_seconds",
			Help:      "Verification stage latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "gate",
			Name:      "verdicts_total",
			Help:      "Terminal verdicts by outcome and reason",
		}, []string{"accepted", "reason"}),
		DiffPercent: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "gate",
			Name:      "diff_percentage",
			Help:      "Pixel difference percentage of compared candidates",
			Buckets:   []float64{0, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}),

		CatalogFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "catalog",
			Name:      "fetches_total",
			Help:      "Catalog fetches by network and status",
		}, []string{"network", "status"}),
		CatalogDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "catalog",
			Name:      "fetch_duration_seconds",
			Help:      "Catalog fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CatalogStyles: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "catalog",
			Name:      "styles",
			Help:      "Styles in the most recently installed catalog",
		}, []string{"network"}),
		CatalogJoins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "catalog",
			Name:      "joined_fetches_total",
			Help:      "Callers that joined a fetch already in flight",
		}, []string{"network"}),

		CacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache lookups and writes by key type and result",
		}, []string{"key_type", "result"}),
		CacheSet: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "entry_bytes",
			Help:      "Size of cache writes in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"key_type"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "responses_total",
			Help:      "Outgoing HTTP responses by host and status",
		}, []string{"host", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "duration_seconds",
			Help:      "Outgoing HTTP latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		HTTPErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "errors_total",
			Help:      "Outgoing HTTP transport failures by host",
		}, []string{"host"}),
	}
}

// Register creates metrics on reg and installs them as the global hooks.
func Register(reg prometheus.Registerer) *Metrics {
	m := NewMetrics(reg)
	observability.SetRenderHooks(renderHooks{m})
	observability.SetGateHooks(gateHooks{m})
	observability.SetCatalogHooks(catalogHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetHTTPHooks(httpHooks{m})
	return m
}

// Handler returns the HTTP handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns the HTTP handler for g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type renderHooks struct{ m *Metrics }

func (h renderHooks) OnRenderStart(context.Context, string) {}

func (h renderHooks) OnRenderComplete(_ context.Context, program string, d time.Duration, err error) {
	h.m.RenderDuration.WithLabelValues(program).Observe(d.Seconds())
	if err != nil {
		h.m.RenderErrors.WithLabelValues(program, string(errors.CodeOr(err, errors.ErrCodeInternal))).Inc()
	}
}

type gateHooks struct{ m *Metrics }

func (h gateHooks) OnStage(_ context.Context, stage string, d time.Duration, err error) {
	h.m.StageDuration.WithLabelValues(stage, status(err)).Observe(d.Seconds())
}

func (h gateHooks) OnVerdict(_ context.Context, accepted bool, reason string, diff float64) {
	h.m.Verdicts.WithLabelValues(strconv.FormatBool(accepted), reason).Inc()
	h.m.DiffPercent.Observe(diff)
}

type catalogHooks struct{ m *Metrics }

func (h catalogHooks) OnFetch(_ context.Context, network uint64, styles int, d time.Duration, err error) {
	n := strconv.FormatUint(network, 10)
	h.m.CatalogFetches.WithLabelValues(n, status(err)).Inc()
	h.m.CatalogDuration.Observe(d.Seconds())
	if err == nil {
		h.m.CatalogStyles.WithLabelValues(n).Set(float64(styles))
	}
}

func (h catalogHooks) OnJoin(_ context.Context, network uint64) {
	h.m.CatalogJoins.WithLabelValues(strconv.FormatUint(network, 10)).Inc()
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.m.CacheOps.WithLabelValues(keyType, "set").Inc()
	h.m.CacheSet.WithLabelValues(keyType).Observe(float64(size))
}

type httpHooks struct{ m *Metrics }

func (h httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	h.m.HTTPRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	h.m.HTTPDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.m.HTTPErrors.WithLabelValues(host).Inc()
}
