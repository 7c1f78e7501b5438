package profile

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewProfile(t *testing.T) {
	p := NewProfile("Elena")

	if p.ID == uuid.Nil {
		t.Error("expected a generated ID")
	}
	if p.Name != "Elena" {
		t.Errorf("name = %q, want Elena", p.Name)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	p := NewProfile("")
	if err := p.Validate(); err == nil {
		t.Error("expected error for empty name")
	}

	p = &Profile{Name: "Elena"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for nil ID")
	}
}

func TestMergeFacts(t *testing.T) {
	p := NewProfile("Elena")
	p.Facts = []string{"Player's name: Elena"}

	p.MergeFacts([]string{
		"Player's name: Elena",
		"Carries a red keycard",
		"",
		"Carries a red keycard",
		"Knows the reactor code",
	})

	want := []string{
		"Player's name: Elena",
		"Carries a red keycard",
		"Knows the reactor code",
	}
	if len(p.Facts) != len(want) {
		t.Fatalf("facts = %v, want %v", p.Facts, want)
	}
	for i := range want {
		if p.Facts[i] != want[i] {
			t.Errorf("facts[%d] = %q, want %q", i, p.Facts[i], want[i])
		}
	}
}

func TestMarkSceneCompleted(t *testing.T) {
	p := NewProfile("Elena")
	p.MarkSceneCompleted("derelict_station")
	p.MarkSceneCompleted("derelict_station")
	p.MarkSceneCompleted("night_market")

	if len(p.CompletedScenes) != 2 {
		t.Fatalf("completed scenes = %v, want 2 entries", p.CompletedScenes)
	}
	if p.CompletedScenes[0] != "derelict_station" || p.CompletedScenes[1] != "night_market" {
		t.Errorf("completed scenes = %v", p.CompletedScenes)
	}
}
