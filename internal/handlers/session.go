package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

// SessionHandler handles session lifecycle operations.
// Routes:
// POST /v1/sessions               - Create a new session from a scene
// GET /v1/sessions/{id}           - Read a session by ID
// DELETE /v1/sessions/{id}        - Delete a session by ID
// POST /v1/sessions/{id}/advance  - Advance the narrative phase
// POST /v1/sessions/{id}/end      - End the conversation
type SessionHandler struct {
	storage     storage.Storage
	broadcaster *events.Broadcaster // nil when events are not configured
	logger      *slog.Logger
}

func NewSessionHandler(storage storage.Storage, broadcaster *events.Broadcaster, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage:     storage,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateSessionRequest defines the request body for creating a session.
type CreateSessionRequest struct {
	Scene      string    `json:"scene"`                 // Required: scene filename
	ProfileID  uuid.UUID `json:"profile_id,omitempty"`  // Optional: player profile
	PlayerName string    `json:"player_name,omitempty"` // Optional: display name for prompts
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Path shapes: /v1/sessions, /v1/sessions/{id}, /v1/sessions/{id}/{action}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a session.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, sessionID)
		case http.MethodDelete:
			h.handleDelete(w, r, sessionID)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Session actions use POST.")
		return
	}
	switch parts[1] {
	case "advance":
		h.handleAdvance(w, r, sessionID)
	case "end":
		h.handleEnd(w, r, sessionID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session action: "+parts[1])
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if req.Scene == "" {
		writeError(w, h.logger, http.StatusBadRequest, "scene field is required")
		return
	}

	sc, err := h.storage.GetScene(r.Context(), req.Scene)
	if err != nil {
		h.logger.Warn("Failed to load scene", "scene", req.Scene, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to load scene: "+err.Error())
		return
	}

	sess := session.New(sc.FileName, sc.StartPhase())
	sess.ProfileID = req.ProfileID
	sess.PlayerName = req.PlayerName

	// A profile's name wins over the request when both are present.
	if req.ProfileID != uuid.Nil {
		p, err := h.storage.LoadProfile(r.Context(), req.ProfileID)
		if err != nil {
			h.logger.Warn("Failed to load profile for new session", "profile_id", req.ProfileID, "error", err)
		} else if p != nil && p.Name != "" {
			sess.PlayerName = p.Name
		}
	}

	// The opening line is the NPC's first turn, recorded through the same
	// pipeline as generated lines so cues in scripted openings still work.
	sess.Attach(nil, h.logger)
	if sc.OpeningLine != "" {
		sess.RecordNPCTurn(sc.OpeningLine)
	}

	if err := h.storage.SaveSession(r.Context(), sess.ID, sess); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", sess.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Debug("Session created", "id", sess.ID.String(), "scene", sc.FileName)
	writeJSON(w, h.logger, http.StatusCreated, sess)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	sess, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sess)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted", "id", sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceRequest optionally names the target phase. With no target, the
// machine attempts its first allowed transition.
type AdvanceRequest struct {
	Phase string `json:"phase,omitempty"`
}

// AdvanceResponse reports the transition outcome and the machine's new
// context.
type AdvanceResponse struct {
	Advanced bool              `json:"advanced"`
	From     narrative.Phase   `json:"from"`
	Context  narrative.Context `json:"context"`
}

// handleAdvance is the scene-button glue: the UI decides when a transition
// is narratively right, the machine decides whether it is legal.
func (h *SessionHandler) handleAdvance(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	var req AdvanceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}
	if req.Phase != "" && !narrative.ValidPhase(narrative.Phase(req.Phase)) {
		writeError(w, h.logger, http.StatusBadRequest, "Unknown phase: "+req.Phase)
		return
	}

	sess, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	sess.Attach(nil, h.logger)

	from := sess.Narrative.Current
	var advanced bool
	if req.Phase != "" {
		advanced = sess.Narrative.AdvanceTo(narrative.Phase(req.Phase))
	} else {
		advanced = sess.Narrative.Advance()
	}

	if advanced {
		if err := h.storage.SaveSession(r.Context(), sess.ID, sess); err != nil {
			h.logger.Error("Failed to save session after advance", "error", err, "id", sessionID.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
			return
		}
		if h.broadcaster != nil {
			if err := h.broadcaster.PublishPhaseAdvanced(r.Context(), sess.ID, string(from), string(sess.Narrative.Current)); err != nil {
				h.logger.Warn("Failed to publish phase event", "error", err)
			}
		}
	}

	// An illegal transition is a client mistake, not a server fault: the
	// state is unchanged and the response says so.
	status := http.StatusOK
	if !advanced {
		status = http.StatusConflict
	}
	writeJSON(w, h.logger, status, AdvanceResponse{
		Advanced: advanced,
		From:     from,
		Context:  sess.Narrative.Context(),
	})
}

// handleEnd marks the session finished and carries its key facts to the
// player's profile when one is linked.
func (h *SessionHandler) handleEnd(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	sess, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	sess.Attach(nil, h.logger)
	sess.End()

	if sess.ProfileID != uuid.Nil {
		p, err := h.storage.LoadProfile(r.Context(), sess.ProfileID)
		if err != nil || p == nil {
			h.logger.Warn("Could not load profile at session end", "profile_id", sess.ProfileID, "error", err)
		} else {
			p.MergeFacts(sess.Dialogue.KeyFacts)
			p.MarkSceneCompleted(sess.SceneID)
			if err := h.storage.SaveProfile(r.Context(), p); err != nil {
				h.logger.Warn("Failed to save profile at session end", "profile_id", p.ID, "error", err)
			}
		}
	}

	if err := h.storage.SaveSession(r.Context(), sess.ID, sess); err != nil {
		h.logger.Error("Failed to save ended session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}
	if h.broadcaster != nil {
		if err := h.broadcaster.PublishSessionEnded(r.Context(), sess.ID); err != nil {
			h.logger.Warn("Failed to publish session end event", "error", err)
		}
	}

	writeJSON(w, h.logger, http.StatusOK, sess)
}
