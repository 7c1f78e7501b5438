package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

// Storage defines a unified interface for all storage operations.
// Sessions and profiles persist in Redis; scenes load from the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed)
	SaveSession(ctx context.Context, id uuid.UUID, sess *session.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Scene operations (filesystem-backed)
	ListScenes(ctx context.Context) (map[string]string, error)
	GetScene(ctx context.Context, filename string) (*scene.Scene, error)

	// Profile operations (Redis-backed, encrypted at rest when a key
	// is configured)
	SaveProfile(ctx context.Context, p *profile.Profile) error
	LoadProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}
