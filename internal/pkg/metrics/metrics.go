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

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoquest",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Game metrics
	PositionsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "game",
		Name:      "positions_ingested_total",
		Help:      "Position samples processed, by outcome",
	}, []string{"origin", "outcome"})

	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "game",
		Name:      "answers_submitted_total",
		Help:      "Answer submissions, by outcome",
	}, []string{"outcome"})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "game",
		Name:      "finished_total",
		Help:      "Sessions that answered every waypoint",
	}, []string{"game"})

	SessionsHalted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "game",
		Name:      "sessions_halted_total",
		Help:      "Sessions stopped by a fatal error",
	}, []string{"reason"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoquest",
		Subsystem: "game",
		Name:      "active_sessions",
		Help:      "Sessions currently held in memory",
	})

	BundleLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geoquest",
		Subsystem: "game",
		Name:      "bundle_fetch_duration_seconds",
		Help:      "Duration of game bundle fetches from the data source",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoquest",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquest",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// route pattern keeps session ids out of the label set
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
