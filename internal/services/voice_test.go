package services

import (
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/emotion"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

func TestVoiceDirector_NoCues(t *testing.T) {
	d := NewVoiceDirector(discardLogger())

	req := d.Direct(scene.Voice{ID: "narrator-en-1"}, "Hello.", nil)

	if req.Voice != "narrator-en-1" {
		t.Errorf("Expected voice id to pass through, got %q", req.Voice)
	}
	if req.Rate != defaultVoiceRate || req.Pitch != defaultVoicePitch || req.Stability != defaultVoiceStability {
		t.Errorf("Expected baseline parameters, got %+v", req)
	}
}

func TestVoiceDirector_SceneVoicePassesThrough(t *testing.T) {
	d := NewVoiceDirector(discardLogger())
	voice := scene.Voice{ID: "aria-synth", Rate: 0.9, Pitch: 1.1, Stability: 0.9}

	req := d.Direct(voice, "Systems nominal.", nil)

	if req.Rate != 0.9 || req.Pitch != 1.1 || req.Stability != 0.9 {
		t.Errorf("Expected scene voice parameters untouched, got %+v", req)
	}
}

func TestVoiceDirector_HighArousalCue(t *testing.T) {
	d := NewVoiceDirector(discardLogger())
	cues := []emotion.Cue{
		{Category: emotion.CategoryPhysical, Emotion: "distress", Intensity: 0.95},
	}

	req := d.Direct(scene.Voice{ID: "v"}, "Stay back!", cues)

	if req.Rate <= defaultVoiceRate {
		t.Errorf("Expected distress to speed the voice up, got rate %f", req.Rate)
	}
	if req.Stability >= defaultVoiceStability {
		t.Errorf("Expected distress to destabilize the voice, got stability %f", req.Stability)
	}
}

func TestVoiceDirector_LowArousalCue(t *testing.T) {
	d := NewVoiceDirector(discardLogger())
	cues := []emotion.Cue{
		{Category: emotion.CategoryVocal, Emotion: "calm", Intensity: 0.6},
	}

	req := d.Direct(scene.Voice{ID: "v"}, "All systems nominal.", cues)

	if req.Rate >= defaultVoiceRate {
		t.Errorf("Expected calm to slow the voice down, got rate %f", req.Rate)
	}
	if req.Stability <= defaultVoiceStability {
		t.Errorf("Expected calm to steady the voice, got stability %f", req.Stability)
	}
}

func TestVoiceDirector_UnknownEmotionUnchanged(t *testing.T) {
	d := NewVoiceDirector(discardLogger())
	cues := []emotion.Cue{
		{Category: emotion.CategoryUnknown, Emotion: "neutral", Intensity: 0.5},
	}

	req := d.Direct(scene.Voice{ID: "v"}, "Noted.", cues)

	if req.Rate != defaultVoiceRate || req.Stability != defaultVoiceStability {
		t.Errorf("Expected neutral cue to leave voice unchanged, got %+v", req)
	}
}

func TestVoiceDirector_DominantCueWins(t *testing.T) {
	d := NewVoiceDirector(discardLogger())
	cues := []emotion.Cue{
		{Category: emotion.CategoryVocal, Emotion: "calm", Intensity: 0.3},
		{Category: emotion.CategoryPhysical, Emotion: "distress", Intensity: 0.9},
	}

	req := d.Direct(scene.Voice{ID: "v"}, "It's fine. It's all fine.", cues)

	// The stronger distress cue should win over the weaker calm one
	if req.Rate <= defaultVoiceRate {
		t.Errorf("Expected dominant distress cue to drive the voice, got rate %f", req.Rate)
	}
}

func TestVoiceDirector_Clamping(t *testing.T) {
	d := NewVoiceDirector(discardLogger())
	voice := scene.Voice{ID: "v", Rate: 1.9, Stability: 0.05}
	cues := []emotion.Cue{
		{Category: emotion.CategoryEmotion, Emotion: "panic", Intensity: 1.0},
	}

	req := d.Direct(voice, "They're in the walls!", cues)

	if req.Rate > 2.0 {
		t.Errorf("Rate exceeded clamp: %f", req.Rate)
	}
	if req.Stability < 0.0 {
		t.Errorf("Stability fell below clamp: %f", req.Stability)
	}
}
