package queue

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestJSONRoundTrip(t *testing.T) {
	req := NewTurnRequest(uuid.New(), "What happened to the crew?", "question", []string{"crew"})

	data, err := req.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(data), req.SessionID.String()) {
		t.Errorf("serialized request missing session id: %s", data)
	}

	parsed, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.RequestID != req.RequestID {
		t.Errorf("request id = %q, want %q", parsed.RequestID, req.RequestID)
	}
	if parsed.SessionID != req.SessionID {
		t.Errorf("session id = %v, want %v", parsed.SessionID, req.SessionID)
	}
	if parsed.Type != RequestTypeTurn {
		t.Errorf("type = %q, want turn", parsed.Type)
	}
	if parsed.Message != req.Message || parsed.TurnType != "question" {
		t.Errorf("payload fields lost: %+v", parsed)
	}
	if len(parsed.Topics) != 1 || parsed.Topics[0] != "crew" {
		t.Errorf("topics = %v", parsed.Topics)
	}
}

func TestFromJSONRejectsBadSessionID(t *testing.T) {
	if _, err := FromJSON([]byte(`{"request_id":"r1","type":"turn","session_id":"not-a-uuid"}`)); err == nil {
		t.Error("expected error for malformed session id")
	}
}

func TestRequestValidate(t *testing.T) {
	turn := NewTurnRequest(uuid.New(), "hello", "", nil)
	if err := turn.Validate(); err != nil {
		t.Errorf("valid turn request: %v", err)
	}

	summarize := NewSummarizeRequest(uuid.New())
	if err := summarize.Validate(); err != nil {
		t.Errorf("valid summarize request: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Request)
		want   string
	}{
		{"missing request id", func(r *Request) { r.RequestID = "" }, "request_id"},
		{"missing session id", func(r *Request) { r.SessionID = uuid.Nil }, "session_id"},
		{"turn without message", func(r *Request) { r.Message = "" }, "requires a message"},
		{"unknown type", func(r *Request) { r.Type = "delta" }, "unknown request type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTurnRequest(uuid.New(), "hello", "", nil)
			tt.mutate(r)
			err := r.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
