package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	intqueue "github.com/jwebster45206/dialogue-engine/internal/queue"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
)

const healthCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service"`
	Components map[string]interface{} `json:"components"`
}

type HealthHandler struct {
	storage  storage.Storage
	requests *intqueue.RequestQueue // nil when the queue is disabled
	logger   *slog.Logger
}

func NewHealthHandler(storage storage.Storage, requests *intqueue.RequestQueue, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage:  storage,
		requests: requests,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	response := h.check(ctx)

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// check probes each dependency. Any failing component degrades the
// overall status, which maps to a 503 on the wire.
func (h *HealthHandler) check(ctx context.Context) HealthResponse {
	components := make(map[string]interface{})
	status := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		status = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	if h.requests != nil {
		if depth, err := h.requests.Depth(ctx); err != nil {
			h.logger.Warn("Queue health check failed", "error", err)
			components["queue"] = "unhealthy"
			status = "degraded"
		} else {
			components["queue"] = map[string]interface{}{
				"status": "healthy",
				"depth":  depth,
			}
		}
	}

	return HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Service:    "dialogue-engine",
		Components: components,
	}
}
