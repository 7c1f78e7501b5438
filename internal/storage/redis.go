package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	connectRetryDelay = 2 * time.Second
	connectMaxRetries = 30

	defaultSceneDir = "./data/scenes"
)

// RedisStorage implements the Storage interface using Redis for sessions
// and profiles, and the filesystem for static resources (scenes)
type RedisStorage struct {
	client   *redis.Client
	logger   *slog.Logger
	sceneDir string
	box      *cipherBox // nil when profile encryption is not configured
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. profileKey enables
// encryption of profiles at rest; pass nil to store them as plaintext.
func NewRedisStorage(redisURL string, sceneDir string, profileKey []byte, logger *slog.Logger) (*RedisStorage, error) {
	if sceneDir == "" {
		sceneDir = defaultSceneDir
	}

	var box *cipherBox
	if len(profileKey) > 0 {
		var err error
		if box, err = newCipherBox(profileKey); err != nil {
			return nil, fmt.Errorf("failed to initialize profile encryption: %w", err)
		}
	}

	return &RedisStorage{
		client:   redis.NewClient(&redis.Options{Addr: redisURL}),
		logger:   logger,
		sceneDir: sceneDir,
		box:      box,
	}, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection polls Redis until it responds or the retry budget runs out.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		if err := r.Ping(ctx); err == nil {
			r.logger.Info("Redis connection established")
			return nil
		} else {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", attempt)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
		case <-time.After(connectRetryDelay):
		}
	}
	return fmt.Errorf("redis did not become available after %d attempts", connectMaxRetries)
}
