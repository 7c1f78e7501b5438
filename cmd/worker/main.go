package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/queue"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)
	log.Info("Starting Dialogue Engine Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		fatal(log, "Failed to create queue client", err)
	}
	defer closeWith(log, "queue client", queueClient.Close)
	requests := queue.NewRequestQueue(queueClient)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.SceneDir, cfg.ProfileKey, log)
	if err != nil {
		fatal(log, "Failed to initialize storage", err)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		fatal(log, "Failed to connect to storage", err)
	}

	llmService, err := buildLLMService(cfg, log)
	if err != nil {
		fatal(log, "Failed to configure LLM provider", err)
	}
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		fatal(log, "Failed to initialize LLM model", err)
	}
	log.Info("LLM service initialized", "provider", cfg.LLMProvider, "model", cfg.ModelName)

	// The processor gets the queue so overlong histories are compressed as
	// follow-up jobs instead of inline.
	processor := worker.NewTurnProcessor(store, llmService, requests, log)

	// Separate Redis client for session locking, isolated from the queue
	// client's blocking reads.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		fatal(log, "Failed to connect to Redis", err)
	}
	defer closeWith(log, "Redis client", redisClient.Close)

	w := worker.New(requests, processor, redisClient, log, os.Getenv("WORKER_ID"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			fatal(log, "Worker error", err)
		}
	}()
	log.Info("Worker started, waiting for requests...")

	<-quit
	log.Info("Worker shutdown signal received")
	w.Stop()

	// Give the worker time to finish the request in flight.
	time.Sleep(2 * time.Second)
	closeWith(log, "storage connection", store.Close)
	log.Info("Worker exited")
}

func buildLLMService(cfg *config.Config, log *slog.Logger) (services.LLMService, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, cfg.BackendModelName, log), nil
	case "venice":
		if cfg.VeniceAPIKey == "" {
			return nil, fmt.Errorf("venice provider requires an API key")
		}
		return services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.BackendModelName), nil
	case "ollama":
		return services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log), nil
	case "mock":
		log.Warn("Using mock LLM provider")
		return services.NewMockLLMService(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (want anthropic, venice, ollama or mock)", cfg.LLMProvider)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func closeWith(log *slog.Logger, name string, fn func() error) {
	if err := fn(); err != nil {
		log.Error("Error closing "+name, "error", err)
	}
}
