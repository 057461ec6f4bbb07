package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a backend the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and, when a backend is attached, its reachability
type HealthHandler struct {
	backend Pinger
	storage string
}

func NewHealthHandler(backend Pinger, storage string) *HealthHandler {
	return &HealthHandler{backend: backend, storage: storage}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	if h.backend != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.backend.Ping(ctx); err != nil {
			c.Logger().Warnf("health check failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "nano-blog-api",
				"storage": h.storage,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "nano-blog-api",
		"storage": h.storage,
	})
}
