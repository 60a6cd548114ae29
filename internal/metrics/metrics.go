package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns every metric the service exports. Each Collector has its own
// registry so tests can build as many as they like.
type Collector struct {
	ServiceName string
	registry    *prometheus.Registry

	// HTTP
	RequestCounter            *prometheus.CounterVec
	RequestDurationHistogram  *prometheus.HistogramVec
	StatusCodeCategoryCounter *prometheus.CounterVec

	// Accounts
	AuthOperationCounter *prometheus.CounterVec
	AuthErrorCounter     *prometheus.CounterVec

	// Postings
	PostingOperationCounter *prometheus.CounterVec

	// Applications
	ApplicationSubmittedCounter prometheus.Counter
	ApplicationDuplicateCounter prometheus.Counter
	ApplicationStatusCounter    *prometheus.CounterVec

	// Saved jobs
	SavedJobToggleCounter *prometheus.CounterVec

	// Throttling
	RateLimitedCounter *prometheus.CounterVec

	// Store
	DBOperationDuration *prometheus.HistogramVec
}

// New creates a collector whose metric names carry the given prefix.
func New(serviceName, prefix string) *Collector {
	if prefix == "" {
		prefix = "jobboard"
	}
	c := &Collector{
		ServiceName: serviceName,
		registry:    prometheus.NewRegistry(),

		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDurationHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: prefix,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		StatusCodeCategoryCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "http_status_category_total",
				Help:      "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category"},
		),
		AuthOperationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "auth_operations_total",
				Help:      "Total number of authentication operations",
			},
			[]string{"operation"},
		),
		AuthErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "auth_errors_total",
				Help:      "Total number of authentication errors",
			},
			[]string{"type"},
		),
		PostingOperationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "posting_operations_total",
				Help:      "Total number of job posting mutations",
			},
			[]string{"operation"},
		),
		ApplicationSubmittedCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "applications_submitted_total",
				Help:      "Total number of accepted job applications",
			},
		),
		ApplicationDuplicateCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "applications_duplicate_total",
				Help:      "Total number of applications rejected as duplicates",
			},
		),
		ApplicationStatusCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "application_status_changes_total",
				Help:      "Total number of application status updates by new status",
			},
			[]string{"status"},
		),
		SavedJobToggleCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "saved_job_toggles_total",
				Help:      "Total number of saved job toggles",
			},
			[]string{"result"},
		),
		RateLimitedCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "rate_limited_total",
				Help:      "Total number of throttled requests",
			},
			[]string{"scope"},
		),
		DBOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: prefix,
				Name:      "db_operation_duration_seconds",
				Help:      "Duration of database operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.RequestCounter,
		c.RequestDurationHistogram,
		c.StatusCodeCategoryCounter,
		c.AuthOperationCounter,
		c.AuthErrorCounter,
		c.PostingOperationCounter,
		c.ApplicationSubmittedCounter,
		c.ApplicationDuplicateCounter,
		c.ApplicationStatusCounter,
		c.SavedJobToggleCounter,
		c.RateLimitedCounter,
		c.DBOperationDuration,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for exposing Prometheus metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// The helpers below are nil-safe so services can run without metrics.

func (c *Collector) AuthOperation(op string) {
	if c != nil {
		c.AuthOperationCounter.WithLabelValues(op).Inc()
	}
}

func (c *Collector) AuthError(kind string) {
	if c != nil {
		c.AuthErrorCounter.WithLabelValues(kind).Inc()
	}
}

func (c *Collector) PostingOperation(op string) {
	if c != nil {
		c.PostingOperationCounter.WithLabelValues(op).Inc()
	}
}

func (c *Collector) ApplicationSubmitted() {
	if c != nil {
		c.ApplicationSubmittedCounter.Inc()
	}
}

func (c *Collector) ApplicationDuplicate() {
	if c != nil {
		c.ApplicationDuplicateCounter.Inc()
	}
}

func (c *Collector) ApplicationStatusChanged(status string) {
	if c != nil {
		c.ApplicationStatusCounter.WithLabelValues(status).Inc()
	}
}

func (c *Collector) SavedJobToggled(saved bool) {
	if c == nil {
		return
	}
	result := "removed"
	if saved {
		result = "saved"
	}
	c.SavedJobToggleCounter.WithLabelValues(result).Inc()
}

func (c *Collector) RateLimited(scope string) {
	if c != nil {
		c.RateLimitedCounter.WithLabelValues(scope).Inc()
	}
}

// TrackDBOperation returns a func that observes the elapsed time since the call.
// Use as: defer c.TrackDBOperation("query")()
func (c *Collector) TrackDBOperation(operation string) func() {
	if c == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			status := ctx.Response().Status
			method := ctx.Request().Method
			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			statusStr := strconv.Itoa(status)

			c.RequestCounter.WithLabelValues(c.ServiceName, method, path, statusStr).Inc()
			if category := statusCategory(status); category != "" {
				c.StatusCodeCategoryCounter.WithLabelValues(c.ServiceName, category).Inc()
			}
			c.RequestDurationHistogram.WithLabelValues(c.ServiceName, method, path, statusStr).
				Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
