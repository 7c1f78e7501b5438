package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	intqueue "github.com/jwebster45206/dialogue-engine/internal/queue"
	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/internal/worker"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	queuePkg "github.com/jwebster45206/dialogue-engine/pkg/queue"
)

// TurnHandler handles player turns.
// Routes:
// POST /v1/turns                          - Process a turn (sync, or 202 + request id when queued)
// GET /v1/turns/{session_id}/{request_id} - Poll an async turn result
type TurnHandler struct {
	storage     storage.Storage
	processor   *worker.TurnProcessor
	requests    *intqueue.RequestQueue // nil runs turns synchronously
	broadcaster *events.Broadcaster    // nil when events are not configured
	logger      *slog.Logger
}

func NewTurnHandler(
	storage storage.Storage,
	processor *worker.TurnProcessor,
	requests *intqueue.RequestQueue,
	broadcaster *events.Broadcaster,
	logger *slog.Logger,
) *TurnHandler {
	return &TurnHandler{
		storage:     storage,
		processor:   processor,
		requests:    requests,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// AcceptedResponse is returned when a turn is queued for async processing.
type AcceptedResponse struct {
	RequestID string    `json:"request_id"`
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handlePoll(w, r)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
	}
}

func (h *TurnHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.SessionID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	// Shortcut commands answer from session state alone, synchronously,
	// whether or not a queue is configured.
	sess, err := h.storage.LoadSession(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	sess.Attach(nil, h.logger)
	if result := TryHandleCommand(sess, req.Text); result.Handled {
		writeJSON(w, h.logger, http.StatusOK, chat.TurnResponse{
			SessionID: sess.ID,
			Reply:     result.Message,
			CleanText: result.Message,
			Phase:     string(sess.Narrative.Current),
		})
		return
	}

	if h.requests != nil {
		h.enqueueTurn(w, r, req)
		return
	}

	resp, err := h.processor.ProcessTurn(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to process turn", "error", err, "session_id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn. Please try again.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// enqueueTurn hands the turn to the worker pool and returns 202 with the
// request id the client polls on.
func (h *TurnHandler) enqueueTurn(w http.ResponseWriter, r *http.Request, req chat.TurnRequest) {
	qreq := queuePkg.NewTurnRequest(req.SessionID, req.Text, req.TurnType, req.Topics)

	if err := h.requests.EnqueueRequest(r.Context(), qreq); err != nil {
		h.logger.Error("Failed to enqueue turn", "error", err, "session_id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to queue turn. Please try again.")
		return
	}

	if err := h.requests.SetResult(r.Context(), queuePkg.NewResult(qreq.RequestID, queuePkg.ResultStatusQueued)); err != nil {
		h.logger.Warn("Failed to store queued result", "error", err, "request_id", qreq.RequestID)
	}
	if h.broadcaster != nil {
		if err := h.broadcaster.PublishRequestQueued(r.Context(), req.SessionID, qreq.RequestID, string(qreq.Type)); err != nil {
			h.logger.Warn("Failed to publish queued event", "error", err)
		}
	}

	writeJSON(w, h.logger, http.StatusAccepted, AcceptedResponse{
		RequestID: qreq.RequestID,
		SessionID: req.SessionID,
		Status:    string(queuePkg.ResultStatusQueued),
	})
}

// handlePoll returns the stored outcome of an async turn.
// Path: /v1/turns/{session_id}/{request_id}
func (h *TurnHandler) handlePoll(w http.ResponseWriter, r *http.Request) {
	if h.requests == nil {
		writeError(w, h.logger, http.StatusNotFound, "Async turns are not enabled")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/turns"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, h.logger, http.StatusBadRequest, "Expected /v1/turns/{session_id}/{request_id}")
		return
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	res, err := h.requests.GetResult(r.Context(), parts[1])
	if err != nil {
		h.logger.Error("Failed to read turn result", "error", err, "request_id", parts[1])
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read result")
		return
	}
	if res == nil {
		writeError(w, h.logger, http.StatusNotFound, "No result for this request (expired or unknown)")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}
