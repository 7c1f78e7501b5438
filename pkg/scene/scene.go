package scene

import (
	"fmt"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
)

// Voice holds the speech-synthesis parameters for an NPC.
type Voice struct {
	ID        string  `json:"id,omitempty"`        // synthesis voice identifier
	Rate      float64 `json:"rate,omitempty"`      // speaking rate multiplier
	Pitch     float64 `json:"pitch,omitempty"`     // pitch multiplier
	Stability float64 `json:"stability,omitempty"` // 0..1, lower is more expressive
}

// NPC is the character the player converses with.
type NPC struct {
	Name        string `json:"name"`
	Persona     string `json:"persona"`               // who they are, written for the prompt
	Disposition string `json:"disposition,omitempty"` // e.g. "guarded", "clinical", "warm"
	Voice       Voice  `json:"voice,omitempty"`
}

// Scene is the static script for one conversation: the NPC, the situation,
// and the hazards the NPC keeps an eye on.
type Scene struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	FileName     string   `json:"file_name,omitempty"` // set by the loader
	Description  string   `json:"description,omitempty"`
	NPC          NPC      `json:"npc"`
	OpeningLine  string   `json:"opening_line,omitempty"`  // NPC's first utterance
	InitialPhase string   `json:"initial_phase,omitempty"` // defaults to greeting
	HazardTopics []string `json:"hazard_topics,omitempty"` // topics tracked for escalation
}

// StartPhase returns the phase a new session opens in.
func (s *Scene) StartPhase() narrative.Phase {
	if s.InitialPhase == "" {
		return narrative.PhaseGreeting
	}
	return narrative.Phase(s.InitialPhase)
}

func (s *Scene) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scene id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("scene name is required")
	}
	if s.NPC.Name == "" {
		return fmt.Errorf("npc name is required")
	}
	if s.NPC.Persona == "" {
		return fmt.Errorf("npc persona is required")
	}
	if s.InitialPhase != "" && !narrative.ValidPhase(narrative.Phase(s.InitialPhase)) {
		return fmt.Errorf("initial_phase %q is not a known phase", s.InitialPhase)
	}
	if err := s.NPC.Voice.validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.HazardTopics))
	for _, topic := range s.HazardTopics {
		if topic == "" {
			return fmt.Errorf("hazard_topics contains an empty topic")
		}
		if seen[topic] {
			return fmt.Errorf("hazard_topics contains duplicate topic %q", topic)
		}
		seen[topic] = true
	}
	return nil
}

func (v Voice) validate() error {
	if v.Rate != 0 && (v.Rate < 0.5 || v.Rate > 2.0) {
		return fmt.Errorf("voice rate %.2f out of range [0.5, 2.0]", v.Rate)
	}
	if v.Pitch != 0 && (v.Pitch < 0.5 || v.Pitch > 2.0) {
		return fmt.Errorf("voice pitch %.2f out of range [0.5, 2.0]", v.Pitch)
	}
	if v.Stability < 0 || v.Stability > 1 {
		return fmt.Errorf("voice stability %.2f out of range [0, 1]", v.Stability)
	}
	return nil
}
