package queue

import (
	"encoding/json"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
)

// ResultStatus tracks an async request through its lifecycle.
type ResultStatus string

const (
	ResultStatusQueued     ResultStatus = "queued"
	ResultStatusProcessing ResultStatus = "processing"
	ResultStatusCompleted  ResultStatus = "completed"
	ResultStatusFailed     ResultStatus = "failed"
)

// Result is the stored outcome of an async request. The API writes the
// initial queued record, the worker overwrites it as processing moves
// along, and the turn poll endpoint reads it back.
type Result struct {
	RequestID string             `json:"request_id"`
	Status    ResultStatus       `json:"status"`
	Response  *chat.TurnResponse `json:"response,omitempty"`
	Error     string             `json:"error,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewResult builds a result record in the given state.
func NewResult(requestID string, status ResultStatus) *Result {
	return &Result{
		RequestID: requestID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
}

// ToJSON converts the result to JSON bytes for Redis
func (r *Result) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ResultFromJSON parses a result from JSON bytes
func ResultFromJSON(data []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
