package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	queuePkg "github.com/jwebster45206/dialogue-engine/pkg/queue"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	// Create queue client
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	client, err := NewClient(mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}

	return client, mr
}

func TestRequestQueue_EnqueueAndDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	rq := NewRequestQueue(client)
	ctx := context.Background()
	sessionID := uuid.New()

	// Enqueue a few requests
	requests := []*queuePkg.Request{
		queuePkg.NewTurnRequest(sessionID, "What happened here?", "question", []string{"station"}),
		queuePkg.NewTurnRequest(sessionID, "Show me the logs.", "directive", nil),
		queuePkg.NewSummarizeRequest(sessionID),
	}

	for _, req := range requests {
		if err := rq.EnqueueRequest(ctx, req); err != nil {
			t.Fatalf("Failed to enqueue request: %v", err)
		}
	}

	// Check depth
	depth, err := rq.Depth(ctx)
	if err != nil {
		t.Fatalf("Failed to get depth: %v", err)
	}
	if depth != len(requests) {
		t.Errorf("Expected depth %d, got %d", len(requests), depth)
	}

	// Dequeue in FIFO order
	for i, want := range requests {
		got, err := rq.DequeueRequest(ctx)
		if err != nil {
			t.Fatalf("Failed to dequeue request %d: %v", i, err)
		}
		if got == nil {
			t.Fatalf("Request %d missing from queue", i)
		}
		if got.RequestID != want.RequestID {
			t.Errorf("Request %d: expected %s, got %s", i, want.RequestID, got.RequestID)
		}
		if got.Type != want.Type {
			t.Errorf("Request %d: expected type %s, got %s", i, want.Type, got.Type)
		}
		if got.SessionID != sessionID {
			t.Errorf("Request %d: session id mismatch", i)
		}
	}

	// Queue should now be empty
	got, err := rq.DequeueRequest(ctx)
	if err != nil {
		t.Fatalf("Dequeue on empty queue errored: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil from empty queue, got %+v", got)
	}
}

func TestRequestQueue_BlockingDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	rq := NewRequestQueue(client)
	ctx := context.Background()

	req := queuePkg.NewTurnRequest(uuid.New(), "Is anyone alive down there?", "question", []string{"crew"})
	if err := rq.EnqueueRequest(ctx, req); err != nil {
		t.Fatalf("Failed to enqueue request: %v", err)
	}

	// Already queued, so this returns without blocking
	got, err := rq.BlockingDequeueRequest(ctx, 2*time.Second)
	if err != nil {
		t.Fatalf("BlockingDequeueRequest failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a request, got nil")
	}
	if got.RequestID != req.RequestID {
		t.Errorf("Expected request %s, got %s", req.RequestID, got.RequestID)
	}
	if got.Message != req.Message {
		t.Errorf("Message mismatch: %q", got.Message)
	}
}

func TestRequestQueue_Results(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	rq := NewRequestQueue(client)
	ctx := context.Background()

	res := queuePkg.NewResult("req-123", queuePkg.ResultStatusQueued)
	if err := rq.SetResult(ctx, res); err != nil {
		t.Fatalf("Failed to set result: %v", err)
	}

	// Result keys expire so abandoned polls don't accumulate
	if ttl := mr.TTL("turn-result:req-123"); ttl != resultTTL {
		t.Errorf("Expected TTL %v, got %v", resultTTL, ttl)
	}

	got, err := rq.GetResult(ctx, "req-123")
	if err != nil {
		t.Fatalf("Failed to get result: %v", err)
	}
	if got == nil {
		t.Fatal("Expected result, got nil")
	}
	if got.Status != queuePkg.ResultStatusQueued {
		t.Errorf("Expected status queued, got %s", got.Status)
	}

	// Overwrite with a completed result
	res.Status = queuePkg.ResultStatusCompleted
	if err := rq.SetResult(ctx, res); err != nil {
		t.Fatalf("Failed to update result: %v", err)
	}

	got, err = rq.GetResult(ctx, "req-123")
	if err != nil {
		t.Fatalf("Failed to get updated result: %v", err)
	}
	if got.Status != queuePkg.ResultStatusCompleted {
		t.Errorf("Expected status completed, got %s", got.Status)
	}
}

func TestRequestQueue_GetResultMissing(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	rq := NewRequestQueue(client)

	got, err := rq.GetResult(context.Background(), "never-enqueued")
	if err != nil {
		t.Fatalf("GetResult errored for missing key: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing result, got %+v", got)
	}
}
