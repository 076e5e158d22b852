package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"piaxe-console/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health. A failing Redis reports the service as degraded
// rather than failing the check. Session reads and writes against it will
// error until it recovers; the in-process store is only chosen at startup.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	logger.Debug("Health check requested")

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "piaxe-console",
		Checks:    map[string]string{"redis": "disabled"},
	}

	if h.container.HasRedis() {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.container.GetRedisClient().Health(ctx); err != nil {
			logger.WithError(err).Warn("Redis health check failed")
			response.Status = "degraded"
			response.Checks["redis"] = "unhealthy"
		} else {
			response.Checks["redis"] = "healthy"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode health check response")
		return
	}

	logger.Debug("Health check completed successfully")
}
