package scene

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
)

func validScene() Scene {
	return Scene{
		ID:   "derelict_station",
		Name: "Derelict Station",
		NPC: NPC{
			Name:    "ARIA",
			Persona: "The station's maintenance AI. Polite, precise, increasingly worried about life support.",
			Voice:   Voice{ID: "aria-en-1", Rate: 1.0, Stability: 0.6},
		},
		OpeningLine:  "Oh. A visitor. It has been... some time.",
		HazardTopics: []string{"o2_warning", "restricted_area"},
	}
}

func TestSceneValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scene)
		wantErr string
	}{
		{"valid scene", func(s *Scene) {}, ""},
		{"missing id", func(s *Scene) { s.ID = "" }, "id is required"},
		{"missing name", func(s *Scene) { s.Name = "" }, "name is required"},
		{"missing npc name", func(s *Scene) { s.NPC.Name = "" }, "npc name is required"},
		{"missing persona", func(s *Scene) { s.NPC.Persona = "" }, "persona is required"},
		{"unknown initial phase", func(s *Scene) { s.InitialPhase = "climax" }, "not a known phase"},
		{"valid initial phase", func(s *Scene) { s.InitialPhase = "working" }, ""},
		{"rate too high", func(s *Scene) { s.NPC.Voice.Rate = 2.5 }, "rate"},
		{"pitch too low", func(s *Scene) { s.NPC.Voice.Pitch = 0.2 }, "pitch"},
		{"stability out of range", func(s *Scene) { s.NPC.Voice.Stability = 1.4 }, "stability"},
		{"unset voice is fine", func(s *Scene) { s.NPC.Voice = Voice{} }, ""},
		{"empty hazard topic", func(s *Scene) { s.HazardTopics = []string{"o2_warning", ""} }, "empty topic"},
		{"duplicate hazard topic", func(s *Scene) { s.HazardTopics = []string{"o2_warning", "o2_warning"} }, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScene()
			tt.mutate(&s)
			err := s.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSceneStartPhase(t *testing.T) {
	s := validScene()
	if got := s.StartPhase(); got != narrative.PhaseGreeting {
		t.Errorf("StartPhase() = %q, want greeting", got)
	}

	s.InitialPhase = "establishing"
	if got := s.StartPhase(); got != narrative.PhaseEstablishing {
		t.Errorf("StartPhase() = %q, want establishing", got)
	}
}

func TestSceneUnmarshal(t *testing.T) {
	jsonData := `{
		"id": "derelict_station",
		"name": "Derelict Station",
		"description": "A silent orbital platform, three years abandoned.",
		"npc": {
			"name": "ARIA",
			"persona": "The station's maintenance AI.",
			"disposition": "guarded",
			"voice": {"id": "aria-en-1", "rate": 0.95, "pitch": 1.1, "stability": 0.6}
		},
		"opening_line": "Oh. A visitor.",
		"initial_phase": "greeting",
		"hazard_topics": ["o2_warning", "radiation_zone"]
	}`

	var s Scene
	if err := json.Unmarshal([]byte(jsonData), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	if s.NPC.Voice.Rate != 0.95 {
		t.Errorf("voice rate = %v, want 0.95", s.NPC.Voice.Rate)
	}
	if len(s.HazardTopics) != 2 || s.HazardTopics[1] != "radiation_zone" {
		t.Errorf("hazard topics = %v", s.HazardTopics)
	}
	if s.StartPhase() != narrative.PhaseGreeting {
		t.Errorf("start phase = %q", s.StartPhase())
	}
}
