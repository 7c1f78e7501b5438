package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

const (
	// PollInterval is how often to check a queued turn for its result
	PollInterval = 1 * time.Second
	// TurnTimeout is max time to wait for a queued turn to complete
	TurnTimeout = 60 * time.Second
)

// PostTurn sends a player turn. A synchronous API answers 200 with the
// finished turn; a queued API answers 202, in which case the returned
// request id must be polled with PollTurnResult.
func PostTurn(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, text string) (*chat.TurnResponse, string, error) {
	turnReq := chat.TurnRequest{
		SessionID: sessionID,
		Text:      text,
	}

	reqBody, err := json.Marshal(turnReq)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal turn request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/turns", baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create turn request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to send turn request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read turn response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var turnResp chat.TurnResponse
		if err := json.Unmarshal(body, &turnResp); err != nil {
			return nil, "", fmt.Errorf("failed to parse turn response: %w", err)
		}
		return &turnResp, "", nil
	case http.StatusAccepted:
		var accepted struct {
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(body, &accepted); err != nil {
			return nil, "", fmt.Errorf("failed to parse queued response: %w", err)
		}
		return nil, accepted.RequestID, nil
	default:
		return nil, "", fmt.Errorf("turn endpoint returned %d: %s", resp.StatusCode, string(body))
	}
}

// PollTurnResult polls a queued turn until it completes or fails.
func PollTurnResult(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, requestID string) (*chat.TurnResponse, error) {
	timeout := time.After(TurnTimeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	url := fmt.Sprintf("%s/v1/turns/%s/%s", baseURL, sessionID.String(), requestID)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("timeout waiting for turn result (waited %v)", TurnTimeout)
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create result request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				// Transient; keep polling
				continue
			}

			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil || resp.StatusCode != http.StatusOK {
				continue
			}

			var result queue.Result
			if err := json.Unmarshal(body, &result); err != nil {
				continue
			}

			switch result.Status {
			case queue.ResultStatusCompleted:
				return result.Response, nil
			case queue.ResultStatusFailed:
				return nil, fmt.Errorf("turn failed: %s", result.Error)
			}
			// queued or processing: keep polling
		}
	}
}

// GetSession retrieves the current session state
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*session.Session, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID.String())
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send session request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("session endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &sess, nil
}
