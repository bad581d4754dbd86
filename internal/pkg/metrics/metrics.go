package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Search outcomes.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "busfinder",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "busfinder",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Route search metrics
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Total route searches by outcome",
	}, []string{"mode", "outcome"})

	SearchLinesMatched = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "busfinder",
		Subsystem: "search",
		Name:      "lines_matched",
		Help:      "Number of lines serving a searched trip",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
	})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "busfinder",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Duration of route searches",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"mode"})

	// Catalog integrity metrics
	DanglingStopRefs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "catalog",
		Name:      "dangling_stop_refs_total",
		Help:      "Stop references on lines that did not resolve to a stop",
	}, []string{"line"})

	MalformedCatalogDocs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "catalog",
		Name:      "malformed_docs_total",
		Help:      "Catalog documents skipped because they failed validation",
	}, []string{"kind"})

	CatalogImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "catalog",
		Name:      "imports_total",
		Help:      "Catalog imports by result",
	}, []string{"result"})

	// History metrics
	HistoryEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "history",
		Name:      "events_processed_total",
		Help:      "Search-recorded events consumed by the historian",
	}, []string{"result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "busfinder",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "busfinder",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "busfinder",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "busfinder",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "busfinder",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveSearch records the outcome and latency of one route search.
// matched is ignored unless the search succeeded.
func ObserveSearch(mode, outcome string, matched int, elapsed time.Duration) {
	SearchRequests.WithLabelValues(mode, outcome).Inc()
	SearchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if outcome == OutcomeFound || outcome == OutcomeEmpty {
		SearchLinesMatched.Observe(float64(matched))
	}
}

// DanglingHook counts unresolved stop references per line.
func DanglingHook(lineID, stopID string) {
	DanglingStopRefs.WithLabelValues(lineID).Inc()
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// fiber resolves the matched route pattern, which keeps ids out of labels
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

type poolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics updates database pool gauges from a pgxpool.Stat.
func UpdateDBPoolMetrics(stat any) {
	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
