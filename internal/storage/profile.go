package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

// Profile operations (Redis-backed). Profiles have no TTL; they outlive
// sessions. When an encryption key is configured the payload is sealed
// before it reaches Redis.

func (r *RedisStorage) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	p.UpdatedAt = time.Now()

	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal profile", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	payload := string(data)
	if r.box != nil {
		payload, err = r.box.seal(data)
		if err != nil {
			r.logger.Error("Failed to encrypt profile", "uuid", p.ID, "error", err)
			return fmt.Errorf("failed to encrypt profile: %w", err)
		}
	}

	key := "profile:" + p.ID.String()
	cmd := r.client.Set(ctx, key, payload, 0)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save profile", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	key := "profile:" + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load profile", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		return nil, nil
	}

	raw := []byte(data)
	if isEncrypted(data) {
		if r.box == nil {
			return nil, fmt.Errorf("profile %s is encrypted and no key is configured", id)
		}
		var err error
		raw, err = r.box.open(data)
		if err != nil {
			r.logger.Error("Failed to decrypt profile", "uuid", id, "error", err)
			return nil, fmt.Errorf("failed to decrypt profile: %w", err)
		}
	}

	var p profile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		r.logger.Error("Failed to unmarshal profile", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &p, nil
}

func (r *RedisStorage) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	key := "profile:" + id.String()
	cmd := r.client.Del(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete profile", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
