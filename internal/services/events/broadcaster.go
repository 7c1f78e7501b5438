// Package events publishes session lifecycle events to Redis Pub/Sub,
// where the SSE endpoint picks them up for connected clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeRequestQueued     EventType = "request.queued"
	EventTypeRequestProcessing EventType = "request.processing"
	EventTypeRequestCompleted  EventType = "request.completed"
	EventTypeRequestFailed     EventType = "request.failed"
	EventTypeSummaryUpdated    EventType = "summary.updated"
	EventTypePhaseAdvanced     EventType = "phase.advanced"
	EventTypeSessionEnded      EventType = "session.ended"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType              `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ChannelFor returns the Pub/Sub channel carrying one session's events.
// Subscribers (the SSE handler) and the broadcaster must agree on this.
func ChannelFor(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishRequestQueued publishes a request.queued event
func (b *Broadcaster) PublishRequestQueued(ctx context.Context, sessionID uuid.UUID, requestID string, requestType string) error {
	event := Event{
		Type:      EventTypeRequestQueued,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"status": "queued",
			"type":   requestType,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishRequestProcessing publishes a request.processing event
func (b *Broadcaster) PublishRequestProcessing(ctx context.Context, sessionID uuid.UUID, requestID string, requestType string) error {
	event := Event{
		Type:      EventTypeRequestProcessing,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"status": "processing",
			"type":   requestType,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishRequestCompleted publishes a request.completed event
func (b *Broadcaster) PublishRequestCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, result map[string]interface{}) error {
	event := Event{
		Type:      EventTypeRequestCompleted,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"status": "completed",
			"result": result,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishRequestFailed publishes a request.failed event
func (b *Broadcaster) PublishRequestFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error {
	event := Event{
		Type:      EventTypeRequestFailed,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"status": "failed",
			"error":  errorMsg,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishSummaryUpdated publishes a summary.updated event after the rolling
// summary absorbs older turns
func (b *Broadcaster) PublishSummaryUpdated(ctx context.Context, sessionID uuid.UUID, firstSeq, lastSeq int) error {
	event := Event{
		Type:      EventTypeSummaryUpdated,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"first_sequence": firstSeq,
			"last_sequence":  lastSeq,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishPhaseAdvanced publishes a phase.advanced event
func (b *Broadcaster) PublishPhaseAdvanced(ctx context.Context, sessionID uuid.UUID, from, to string) error {
	event := Event{
		Type:      EventTypePhaseAdvanced,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID) error {
	event := Event{
		Type:      EventTypeSessionEnded,
		SessionID: sessionID.String(),
		Data: map[string]interface{}{
			"status": "ended",
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// publishToSession publishes an event to the session-specific channel
func (b *Broadcaster) publishToSession(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := ChannelFor(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
