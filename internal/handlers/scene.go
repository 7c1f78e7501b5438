package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/dialogue-engine/internal/storage"
)

// SceneHandler serves the static scene catalog.
// Routes:
// GET /v1/scenes            - Map of scene name to filename
// GET /v1/scenes/{filename} - Full scene definition
type SceneHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSceneHandler(storage storage.Storage, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenes"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}

	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}
	h.handleGet(w, r, filename)
}

func (h *SceneHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenes, err := h.storage.ListScenes(r.Context())
	if err != nil {
		h.logger.Error("Failed to list scenes", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list scenes")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, scenes)
}

func (h *SceneHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	sc, err := h.storage.GetScene(r.Context(), filename)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, h.logger, http.StatusNotFound, "Scene not found")
			return
		}
		h.logger.Error("Failed to get scene", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve scene")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sc)
}
