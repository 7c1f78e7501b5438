package services

import (
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/emotion"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

// Baseline speech parameters used when the scene's voice leaves a field at
// its zero value.
const (
	defaultVoiceRate      = 1.0
	defaultVoicePitch     = 1.0
	defaultVoiceStability = 0.75
)

// emotionArousal scores how much each emotion should agitate the voice.
// Positive values speed the voice up and destabilize it; negative values do
// the opposite. Emotions not listed read as neutral.
var emotionArousal = map[string]float64{
	"panic":       1.0,
	"urgency":     0.9,
	"distress":    0.85,
	"fear":        0.8,
	"anger":       0.8,
	"desperation": 0.75,
	"shock":       0.7,
	"excitement":  0.6,
	"surprise":    0.5,
	"anxiety":     0.5,
	"frustration": 0.4,
	"joy":         0.35,
	"irritation":  0.3,
	"relief":      -0.3,
	"sadness":     -0.3,
	"grief":       -0.4,
	"gentle":      -0.4,
	"secretive":   -0.5,
	"calm":        -0.6,
	"exhaustion":  -0.7,
}

// Arousal scaling factors for each speech parameter.
const (
	rateSwing      = 0.2
	pitchSwing     = 0.1
	stabilitySwing = 0.35
)

// VoiceDirector turns a scene's base voice and an utterance's performance
// cues into concrete synthesis parameters.
type VoiceDirector struct {
	logger *slog.Logger
}

// NewVoiceDirector creates a new voice director
func NewVoiceDirector(logger *slog.Logger) *VoiceDirector {
	return &VoiceDirector{logger: logger}
}

// Direct builds the speech request for one utterance. The dominant cue (the
// one with the highest intensity; ties keep the earlier cue) drives the
// adjustment; with no cues the scene's base voice passes through unchanged.
func (d *VoiceDirector) Direct(voice scene.Voice, text string, cues []emotion.Cue) SpeechRequest {
	req := SpeechRequest{
		Text:      text,
		Voice:     voice.ID,
		Rate:      voice.Rate,
		Pitch:     voice.Pitch,
		Stability: voice.Stability,
	}
	if req.Rate == 0 {
		req.Rate = defaultVoiceRate
	}
	if req.Pitch == 0 {
		req.Pitch = defaultVoicePitch
	}
	if req.Stability == 0 {
		req.Stability = defaultVoiceStability
	}

	dominant, ok := dominantCue(cues)
	if !ok {
		return req
	}

	delta := emotionArousal[dominant.Emotion] * dominant.Intensity
	if delta == 0 {
		return req
	}

	req.Rate = clampRange(req.Rate*(1+rateSwing*delta), 0.5, 2.0)
	req.Pitch = clampRange(req.Pitch*(1+pitchSwing*delta), 0.5, 2.0)
	req.Stability = clampRange(req.Stability-stabilitySwing*delta, 0.0, 1.0)

	d.logger.Debug("Adjusted voice for cue",
		"emotion", dominant.Emotion,
		"intensity", dominant.Intensity,
		"rate", req.Rate,
		"pitch", req.Pitch,
		"stability", req.Stability)

	return req
}

func dominantCue(cues []emotion.Cue) (emotion.Cue, bool) {
	if len(cues) == 0 {
		return emotion.Cue{}, false
	}
	dominant := cues[0]
	for _, c := range cues[1:] {
		if c.Intensity > dominant.Intensity {
			dominant = c
		}
	}
	return dominant, true
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
