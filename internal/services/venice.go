package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"
	msgNoResponse = "(no response)"

	DefaultVeniceTemperature = 0.7
	DefaultVeniceMaxTokens   = 512
)

// VeniceService implements LLMService against Venice's OpenAI-shaped chat
// completions API.
type VeniceService struct {
	apiKey           string
	modelName        string
	backendModelName string
	baseURL          string
	httpClient       *http.Client
}

type veniceRequest struct {
	Model            string             `json:"model"`
	Messages         []chat.ChatMessage `json:"messages"`
	Temperature      float64            `json:"temperature,omitempty"`
	MaxTokens        int                `json:"max_tokens,omitempty"`
	Stream           bool               `json:"stream"`
	VeniceParameters veniceParameters   `json:"venice_parameters"`
}

// veniceParameters disables Venice's own system prompt; the scene persona
// is the only system prompt these conversations get.
type veniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

type veniceResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewVeniceService(apiKey string, modelName string, backendModelName string) *VeniceService {
	return &VeniceService{
		apiKey:           apiKey,
		modelName:        modelName,
		backendModelName: backendModelName,
		baseURL:          veniceBaseURL,
		httpClient:       &http.Client{Timeout: 60 * time.Second},
	}
}

// InitModel is a no-op; Venice models need no explicit initialization.
func (v *VeniceService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (v *VeniceService) chatCompletion(ctx context.Context, messages []chat.ChatMessage, modelName string, temperature float64) (string, error) {
	body := veniceRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   DefaultVeniceMaxTokens,
		VeniceParameters: veniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		},
	}

	headers := map[string]string{"Authorization": "Bearer " + v.apiKey}
	raw, err := postJSON(ctx, v.httpClient, v.baseURL+"/chat/completions", body, headers)
	if err != nil {
		return "", err
	}

	var parsed veniceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return msgNoResponse, nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func (v *VeniceService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	content, err := v.chatCompletion(ctx, messages, v.modelName, DefaultVeniceTemperature)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: content}, nil
}

// Summarize condenses a transcript at temperature 0, on the backend model
// when one is configured.
func (v *VeniceService) Summarize(ctx context.Context, prompt string) (string, error) {
	model := v.modelName
	if v.backendModelName != "" {
		model = v.backendModelName
	}
	messages := []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: prompt}}
	return v.chatCompletion(ctx, messages, model, 0.0)
}
