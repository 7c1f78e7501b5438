package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// queuedTurn is the 202 body returned when the API hands a turn to a worker.
type queuedTurn struct {
	RequestID string    `json:"request_id"`
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

// phaseAdvance is the body of POST /v1/sessions/{id}/advance, returned on
// both 200 (advanced) and 409 (transition not allowed).
type phaseAdvance struct {
	Advanced bool              `json:"advanced"`
	From     string            `json:"from"`
	Context  narrative.Context `json:"context"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// apiError turns a non-2xx response body into a readable error.
func apiError(action string, statusCode int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("%s: API returned status %d: %s", action, statusCode, string(body))
	}
	return fmt.Errorf("%s: %s", action, errorResp.Error)
}

func listScenes(client *http.Client, baseURL string) ([]string, map[string]string, error) {
	resp, err := client.Get(baseURL + "/v1/scenes")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, apiError("failed to list scenes", resp.StatusCode, body)
	}

	var sceneMap map[string]string
	if err := json.Unmarshal(body, &sceneMap); err != nil {
		return nil, nil, err
	}

	var names []string
	for name := range sceneMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, sceneMap, nil
}

func getScene(client *http.Client, baseURL string, filename string) (*scene.Scene, error) {
	resp, err := client.Get(baseURL + "/v1/scenes/" + filename)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to get scene", resp.StatusCode, body)
	}

	var sc scene.Scene
	if err := json.Unmarshal(body, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scene response: %w", err)
	}
	return &sc, nil
}

func createSession(client *http.Client, baseURL string, sceneFile string, playerName string) (*session.Session, error) {
	reqBody := struct {
		Scene      string `json:"scene"`
		PlayerName string `json:"player_name,omitempty"`
	}{
		Scene:      sceneFile,
		PlayerName: playerName,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/sessions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("failed to create session", resp.StatusCode, body)
	}

	var sess session.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

func getSession(client *http.Client, baseURL string, sessionID uuid.UUID) (*session.Session, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to get session", resp.StatusCode, body)
	}

	var sess session.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

func endSession(client *http.Client, baseURL string, sessionID uuid.UUID) (*session.Session, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/end", baseURL, sessionID),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to end session", resp.StatusCode, body)
	}

	var sess session.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

// advancePhase requests a narrative phase transition. An empty phase asks the
// machine for its first allowed transition. A disallowed transition is not a
// transport error: the result comes back with Advanced false.
func advancePhase(client *http.Client, baseURL string, sessionID uuid.UUID, phase string) (*phaseAdvance, error) {
	reqBody := struct {
		Phase string `json:"phase,omitempty"`
	}{Phase: phase}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/advance", baseURL, sessionID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return nil, apiError("failed to advance phase", resp.StatusCode, body)
	}

	var result phaseAdvance
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse advance response: %w", err)
	}
	return &result, nil
}

// postTurn sends a player turn. A synchronous deployment answers 200 with the
// finished turn; a queued deployment answers 202 with the request id to poll.
func postTurn(client *http.Client, baseURL string, sessionID uuid.UUID, text string) (*chat.TurnResponse, *queuedTurn, error) {
	turnReq := chat.TurnRequest{
		SessionID: sessionID,
		Text:      text,
	}

	jsonData, err := json.Marshal(turnReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/turns",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var turnResp chat.TurnResponse
		if err := json.Unmarshal(body, &turnResp); err != nil {
			return nil, nil, fmt.Errorf("failed to parse turn response: %w", err)
		}
		return &turnResp, nil, nil
	case http.StatusAccepted:
		var accepted queuedTurn
		if err := json.Unmarshal(body, &accepted); err != nil {
			return nil, nil, fmt.Errorf("failed to parse queued response: %w", err)
		}
		return nil, &accepted, nil
	default:
		return nil, nil, apiError("turn request failed", resp.StatusCode, body)
	}
}

// getTurnResult polls the stored outcome of a queued turn.
func getTurnResult(client *http.Client, baseURL string, sessionID uuid.UUID, requestID string) (*queue.Result, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/turns/%s/%s", baseURL, sessionID, requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("failed to read turn result", resp.StatusCode, body)
	}

	var result queue.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse result response: %w", err)
	}
	return &result, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// listenToSSE connects to the session event stream and forwards events to a
// channel until the context is cancelled or the stream closes.
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/sessions/%s", baseURL, sessionID.String())

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent SSEEvent

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				eventChan <- currentEvent
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataJSON := strings.TrimPrefix(line, "data: ")
			var data map[string]interface{}
			if err := json.Unmarshal([]byte(dataJSON), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}

	return nil
}
