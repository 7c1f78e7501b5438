package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.Session
	scenes    map[string]*scene.Scene
	profiles  map[uuid.UUID]*profile.Profile
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*session.Session),
		scenes:   make(map[string]*scene.Scene),
		profiles: make(map[uuid.UUID]*profile.Profile),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pingError != nil {
		return m.pingError
	}
	return nil
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession mocks saving a session
func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, sess *session.Session) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = sess
	return nil
}

// LoadSession mocks loading a session
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, exists := m.sessions[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return sess, nil
}

// DeleteSession mocks deleting a session
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ListScenes mocks listing scenes
func (m *MockStorage) ListScenes(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string)
	for filename, s := range m.scenes {
		result[s.Name] = filename
	}
	return result, nil
}

// GetScene mocks getting a scene by filename
func (m *MockStorage) GetScene(ctx context.Context, filename string) (*scene.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.scenes[filename]
	if !exists {
		return nil, errors.New("scene not found")
	}
	return s, nil
}

// AddScene adds a scene to the mock storage (for testing)
func (m *MockStorage) AddScene(filename string, s *scene.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes[filename] = s
}

// SaveProfile mocks saving a profile
func (m *MockStorage) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

// LoadProfile mocks loading a profile
func (m *MockStorage) LoadProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, exists := m.profiles[id]
	if !exists {
		return nil, nil
	}
	return p, nil
}

// DeleteProfile mocks deleting a profile
func (m *MockStorage) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}
