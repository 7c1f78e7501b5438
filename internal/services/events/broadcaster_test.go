package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func setupBroadcaster(t *testing.T) (*Broadcaster, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBroadcaster(client, logger), client
}

func TestBroadcaster_PublishAndReceive(t *testing.T) {
	b, client := setupBroadcaster(t)
	ctx := context.Background()
	sessionID := uuid.New()

	pubsub := client.Subscribe(ctx, ChannelFor(sessionID))
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription before publishing
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := b.PublishRequestQueued(ctx, sessionID, "req-1", "turn"); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case msg := <-pubsub.Channel():
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("Failed to unmarshal event: %v", err)
		}
		if event.Type != EventTypeRequestQueued {
			t.Errorf("Expected %s, got %s", EventTypeRequestQueued, event.Type)
		}
		if event.RequestID != "req-1" {
			t.Errorf("Expected request ID req-1, got %s", event.RequestID)
		}
		if event.SessionID != sessionID.String() {
			t.Errorf("Expected session ID %s, got %s", sessionID, event.SessionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestBroadcaster_PhaseAdvanced(t *testing.T) {
	b, client := setupBroadcaster(t)
	ctx := context.Background()
	sessionID := uuid.New()

	pubsub := client.Subscribe(ctx, ChannelFor(sessionID))
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := b.PublishPhaseAdvanced(ctx, sessionID, "greeting", "establishing"); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case msg := <-pubsub.Channel():
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("Failed to unmarshal event: %v", err)
		}
		if event.Type != EventTypePhaseAdvanced {
			t.Errorf("Expected %s, got %s", EventTypePhaseAdvanced, event.Type)
		}
		if event.Data["from"] != "greeting" || event.Data["to"] != "establishing" {
			t.Errorf("Unexpected event data: %v", event.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestBroadcaster_SessionIsolation(t *testing.T) {
	b, client := setupBroadcaster(t)
	ctx := context.Background()
	session1 := uuid.New()
	session2 := uuid.New()

	pubsub := client.Subscribe(ctx, ChannelFor(session1))
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := b.PublishSessionEnded(ctx, session2); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case msg := <-pubsub.Channel():
		t.Fatalf("Received event for another session: %s", msg.Payload)
	case <-time.After(200 * time.Millisecond):
		// Nothing delivered, as expected
	}
}
