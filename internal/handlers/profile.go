package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

// ProfileHandler handles player profile operations.
// Routes:
// POST /v1/profiles        - Create a new profile
// GET /v1/profiles/{id}    - Read a profile by ID
// PUT /v1/profiles/{id}    - Replace a profile
// DELETE /v1/profiles/{id} - Delete a profile by ID
type ProfileHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewProfileHandler(storage storage.Storage, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/profiles"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a profile.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	profileID, err := uuid.Parse(path)
	if err != nil {
		h.logger.Warn("Invalid profile ID", "id", path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid profile ID format")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, r, profileID)
	case http.MethodPut:
		h.handlePut(w, r, profileID)
	case http.MethodDelete:
		h.handleDelete(w, r, profileID)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT, DELETE")
	}
}

func (h *ProfileHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if p.Name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "name is required")
		return
	}

	created := profile.NewProfile(p.Name)
	created.Pronouns = p.Pronouns
	created.PreferredVoice = p.PreferredVoice

	if err := h.storage.SaveProfile(r.Context(), created); err != nil {
		h.logger.Error("Failed to save new profile", "error", err, "id", created.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create profile")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, created)
}

func (h *ProfileHandler) handleRead(w http.ResponseWriter, r *http.Request, profileID uuid.UUID) {
	p, err := h.storage.LoadProfile(r.Context(), profileID)
	if err != nil {
		h.logger.Error("Failed to load profile", "error", err, "id", profileID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// handlePut replaces the stored profile. The ID in the path wins over any
// ID in the body; CreatedAt is preserved from the existing record.
func (h *ProfileHandler) handlePut(w http.ResponseWriter, r *http.Request, profileID uuid.UUID) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	p.ID = profileID
	if err := p.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.storage.LoadProfile(r.Context(), profileID)
	if err != nil {
		h.logger.Error("Failed to load profile for update", "error", err, "id", profileID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if existing != nil {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if err := h.storage.SaveProfile(r.Context(), &p); err != nil {
		h.logger.Error("Failed to save profile", "error", err, "id", profileID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save profile")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, &p)
}

func (h *ProfileHandler) handleDelete(w http.ResponseWriter, r *http.Request, profileID uuid.UUID) {
	if err := h.storage.DeleteProfile(r.Context(), profileID); err != nil {
		h.logger.Error("Failed to delete profile", "error", err, "id", profileID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
