package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeTurn is a player-initiated dialogue turn
	RequestTypeTurn RequestType = "turn"

	// RequestTypeSummarize is a system-scheduled history compression job
	RequestTypeSummarize RequestType = "summarize"
)

// Request represents a unified request in the queue
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`

	// Turn-specific fields
	Message  string   `json:"message,omitempty"`
	TurnType string   `json:"turn_type,omitempty"`
	Topics   []string `json:"topics,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTurnRequest builds a queued player turn with a fresh request ID.
func NewTurnRequest(sessionID uuid.UUID, message, turnType string, topics []string) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		Type:       RequestTypeTurn,
		SessionID:  sessionID,
		Message:    message,
		TurnType:   turnType,
		Topics:     topics,
		EnqueuedAt: time.Now().UTC(),
	}
}

// NewSummarizeRequest builds a queued history compression job.
func NewSummarizeRequest(sessionID uuid.UUID) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		Type:       RequestTypeSummarize,
		SessionID:  sessionID,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (r *Request) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if r.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	switch r.Type {
	case RequestTypeTurn:
		if r.Message == "" {
			return fmt.Errorf("turn request requires a message")
		}
	case RequestTypeSummarize:
	default:
		return fmt.Errorf("unknown request type %q", r.Type)
	}
	return nil
}

// MarshalJSON serializes the request to JSON for Redis storage
func (r *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(&struct {
		SessionID string `json:"session_id"`
		*Alias
	}{
		SessionID: r.SessionID.String(),
		Alias:     (*Alias)(r),
	})
}

// UnmarshalJSON deserializes the request from JSON in Redis
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := &struct {
		SessionID string `json:"session_id"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	sessionID, err := uuid.Parse(aux.SessionID)
	if err != nil {
		return err
	}

	r.SessionID = sessionID
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
