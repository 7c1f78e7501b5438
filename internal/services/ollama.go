package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
)

// OllamaService implements LLMService against a local Ollama daemon. There
// is no separate backend model; the loaded model serves both dialogue and
// summarization.
type OllamaService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

type ollamaRequest struct {
	Model    string                 `json:"model"`
	Messages []chat.ChatMessage     `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

func NewOllamaService(baseURL string, modelName string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:    baseURL,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// InitModel waits for the daemon and pulls the model if it isn't loaded.
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName)

	if err := s.waitForReady(ctx); err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}

	ready, err := s.isModelReady(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to check model readiness: %w", err)
	}
	if ready {
		s.logger.Info("Model already available", "model", modelName)
		return nil
	}

	s.logger.Info("Model not found, pulling it", "model", modelName)
	if err := s.pullModel(ctx, modelName); err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	s.logger.Info("Model pulled successfully", "model", modelName)
	return nil
}

func (s *OllamaService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	content, err := s.chatCompletion(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: content}, nil
}

// Summarize condenses a transcript at temperature 0.
func (s *OllamaService) Summarize(ctx context.Context, prompt string) (string, error) {
	messages := []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: prompt}}
	return s.chatCompletion(ctx, messages, map[string]interface{}{"temperature": 0.0})
}

func (s *OllamaService) chatCompletion(ctx context.Context, messages []chat.ChatMessage, options map[string]interface{}) (string, error) {
	body := ollamaRequest{
		Model:    s.modelName,
		Messages: messages,
		Options:  options,
	}

	s.logger.Debug("Making Ollama chat request", "model", s.modelName, "message_count", len(messages))
	raw, err := postJSON(ctx, s.httpClient, s.baseURL+"/api/chat", body, nil)
	if err != nil {
		return "", err
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return parsed.Message.Content, nil
}

// isModelReady checks the daemon's tag list for the model.
func (s *OllamaService) isModelReady(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, model := range tags.Models {
		if model.Name == modelName {
			return true, nil
		}
	}
	return false, nil
}

// pullModel downloads a model. Pulls can take minutes, so this uses its own
// long-timeout client.
func (s *OllamaService) pullModel(ctx context.Context, modelName string) error {
	client := &http.Client{Timeout: 10 * time.Minute}
	_, err := postJSON(ctx, client, s.baseURL+"/api/pull", map[string]string{"name": modelName}, nil)
	return err
}

// waitForReady polls the daemon until it answers.
func (s *OllamaService) waitForReady(ctx context.Context) error {
	const maxRetries = 5
	const retryDelay = 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
		if err == nil {
			resp, err := s.httpClient.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					s.logger.Info("Ollama service is ready")
					return nil
				}
			}
		}
		s.logger.Debug("Ollama not ready yet", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	return fmt.Errorf("ollama service did not become ready after %d attempts", maxRetries)
}
