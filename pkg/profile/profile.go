// Package profile holds long-lived player data that outlives any single
// conversation. Profiles are stored encrypted; that is the storage layer's
// concern, not this package's.
package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Profile is a player's persistent record across sessions.
type Profile struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Pronouns        string    `json:"pronouns,omitempty"`
	PreferredVoice  string    `json:"preferred_voice,omitempty"` // overrides a scene's NPC voice ID
	CompletedScenes []string  `json:"completed_scenes,omitempty"`
	Facts           []string  `json:"facts,omitempty"` // carried over from session key facts
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewProfile(name string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Profile) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("profile id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	return nil
}

// MergeFacts appends facts not already present, preserving order. Called
// when a session ends to carry its key facts forward.
func (p *Profile) MergeFacts(facts []string) {
	seen := make(map[string]bool, len(p.Facts))
	for _, f := range p.Facts {
		seen[f] = true
	}
	for _, f := range facts {
		if f == "" || seen[f] {
			continue
		}
		p.Facts = append(p.Facts, f)
		seen[f] = true
	}
	p.UpdatedAt = time.Now().UTC()
}

// MarkSceneCompleted records a finished scene once.
func (p *Profile) MarkSceneCompleted(sceneID string) {
	for _, id := range p.CompletedScenes {
		if id == sceneID {
			return
		}
	}
	p.CompletedScenes = append(p.CompletedScenes, sceneID)
	p.UpdatedAt = time.Now().UTC()
}
