package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
)

// Pinger reports store reachability.
type Pinger func(ctx context.Context) error

// HealthHandler serves operational endpoints.
type HealthHandler struct {
	service string
	ping    Pinger
	metrics http.Handler
}

func NewHealthHandler(service string, ping Pinger, metrics http.Handler) *HealthHandler {
	return &HealthHandler{service: service, ping: ping, metrics: metrics}
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.FromEcho(c).Error("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status":  "unhealthy",
				"service": h.service,
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": h.service,
	})
}

// Metrics exposes Prometheus metrics.
func (h *HealthHandler) Metrics(c echo.Context) error {
	h.metrics.ServeHTTP(c.Response(), c.Request())
	return nil
}

// Root lists the API entry points.
func (h *HealthHandler) Root(c echo.Context) error {
	base := c.Scheme() + "://" + c.Request().Host
	return c.JSON(http.StatusOK, echo.Map{
		"service": h.service,
		"endpoints": echo.Map{
			"auth":         base + "/api/auth/",
			"categories":   base + "/api/categories/",
			"jobs":         base + "/api/jobs/",
			"applications": base + "/api/applications/",
			"health":       base + "/health",
			"metrics":      base + "/metrics",
		},
	})
}
