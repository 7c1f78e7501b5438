package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

func TestBuildSystemPrompt(t *testing.T) {
	npc := scene.NPC{
		Name:        "ARIA",
		Persona:     "The station's maintenance AI.",
		Disposition: "guarded",
	}

	prompt := BuildSystemPrompt(npc, "Elena")

	if !strings.Contains(prompt, "You are ARIA.") {
		t.Error("prompt missing NPC name")
	}
	if !strings.Contains(prompt, "The station's maintenance AI.") {
		t.Error("prompt missing persona")
	}
	if !strings.Contains(prompt, "conversation with Elena") {
		t.Error("prompt missing player name")
	}
	if !strings.Contains(prompt, "Current disposition: guarded.") {
		t.Error("prompt missing disposition line")
	}
	if !strings.Contains(prompt, "Performance cues") {
		t.Error("prompt missing performance cue rules")
	}
}

func TestBuildSystemPromptNoDisposition(t *testing.T) {
	npc := scene.NPC{Name: "ARIA", Persona: "The station's maintenance AI."}

	prompt := BuildSystemPrompt(npc, "Player")
	if strings.Contains(prompt, "Current disposition") {
		t.Error("prompt should omit the disposition line when unset")
	}
}

func TestFormatDirectives(t *testing.T) {
	if got := FormatDirectives(nil); got != "" {
		t.Errorf("FormatDirectives(nil) = %q, want empty", got)
	}

	got := FormatDirectives([]string{"Speak slowly.", "Do not mention the reactor."})
	want := "Directions for your next response:\n1. Speak slowly.\n2. Do not mention the reactor."
	if got != want {
		t.Errorf("FormatDirectives = %q, want %q", got, want)
	}
}
