package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SpeechRequest is one synthesis job for the TTS backend. Rate and pitch are
// multipliers around 1.0; stability is 0..1 where lower values let the voice
// waver more.
type SpeechRequest struct {
	Text      string  `json:"text"`
	Voice     string  `json:"voice"`
	Rate      float64 `json:"rate,omitempty"`
	Pitch     float64 `json:"pitch,omitempty"`
	Stability float64 `json:"stability,omitempty"`
}

// TTSService defines the interface for speech synthesis
type TTSService interface {
	// Synthesize renders text to audio bytes
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// HTTPTTSService implements TTSService against an HTTP synthesis backend
type HTTPTTSService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure HTTPTTSService implements TTSService interface
var _ TTSService = (*HTTPTTSService)(nil)

// NewHTTPTTSService creates a new TTS service instance
func NewHTTPTTSService(baseURL string, apiKey string, logger *slog.Logger) *HTTPTTSService {
	return &HTTPTTSService{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Synthesize posts the request to the backend and returns the audio bytes
func (t *HTTPTTSService) Synthesize(ctx context.Context, speechReq SpeechRequest) ([]byte, error) {
	if speechReq.Text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	reqBody, err := json.Marshal(speechReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/v1/synthesize", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Error("TTS API returned error",
			"status_code", resp.StatusCode,
			"response_body", string(body))
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("TTS backend returned empty audio")
	}

	t.logger.Debug("Synthesized speech",
		"voice", speechReq.Voice,
		"text_length", len(speechReq.Text),
		"audio_bytes", len(body))

	return body, nil
}
