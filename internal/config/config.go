package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// LLM provider selection
	LLMProvider      string // "anthropic", "venice", "ollama", "mock"
	ModelName        string
	BackendModelName string // cheaper model for summarization
	AnthropicAPIKey  string
	VeniceAPIKey     string
	OllamaURL        string

	// Storage and queue
	RedisURL     string
	SceneDir     string
	QueueEnabled bool

	// Speech synthesis
	TTSURL       string
	TTSAPIKey    string
	DefaultVoice string

	// ProfileKey encrypts player profiles at rest. Empty disables
	// encryption (development only).
	ProfileKey []byte
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:      getEnv("LLM_PROVIDER", "venice"),
		ModelName:        getEnv("MODEL_NAME", ""),
		BackendModelName: getEnv("BACKEND_MODEL_NAME", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		VeniceAPIKey:     getEnv("VENICE_API_KEY", ""),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),

		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		SceneDir:     getEnv("SCENE_DIR", "./data/scenes"),
		QueueEnabled: getEnv("ENABLE_QUEUE", "false") == "true",

		TTSURL:       getEnv("TTS_URL", ""),
		TTSAPIKey:    getEnv("TTS_API_KEY", ""),
		DefaultVoice: getEnv("DEFAULT_VOICE", "narrator-en-1"),
	}

	if keyHex := os.Getenv("PROFILE_ENCRYPTION_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("PROFILE_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("PROFILE_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
		}
		cfg.ProfileKey = key
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
