package emotion

import "strings"

// Category is the broad class of an emotional cue.
type Category string

const (
	CategoryVocal    Category = "vocal_quality"
	CategoryEmotion  Category = "emotion"
	CategoryPhysical Category = "physical"
	CategoryPacing   Category = "pacing"
	CategoryUnknown  Category = "unknown"
)

// Cue is the classification of one bracketed performance annotation.
type Cue struct {
	Category  Category `json:"category"`
	Emotion   string   `json:"emotion"`
	Intensity float64  `json:"intensity"`
	Modifiers []string `json:"modifiers,omitempty"`
	Raw       string   `json:"raw"`
}

// Default intensities per category, overridden by any intensity modifier
// found in the cue.
const (
	defaultPhysicalIntensity = 0.7
	defaultVocalIntensity    = 0.6
	defaultPacingIntensity   = 0.5
	defaultEmotionIntensity  = 0.7
	defaultUnknownIntensity  = 0.5
)

// CategorizeCue classifies a raw cue string. It is a total function: any
// input yields a Cue, with unrecognized text classified as unknown/neutral.
//
// Tables are checked in fixed priority order (physical, vocal, pacing,
// emotion) because many phrases match more than one table: "crying sadly"
// must classify as physical, not emotion.
func CategorizeCue(raw string) Cue {
	cue := Cue{
		Category:  CategoryUnknown,
		Emotion:   "neutral",
		Intensity: defaultUnknownIntensity,
		Raw:       raw,
	}
	lower := strings.ToLower(raw)

	switch {
	case containsAny(lower, physicalKeywords):
		cue.Category = CategoryPhysical
		cue.Emotion = physicalEmotion(lower)
		cue.Intensity = defaultPhysicalIntensity

	case containsAny(lower, vocalKeywords):
		cue.Category = CategoryVocal
		cue.Emotion = vocalEmotion(lower)
		cue.Intensity = defaultVocalIntensity

	case containsAny(lower, pacingKeywords):
		cue.Category = CategoryPacing
		cue.Emotion = "neutral"
		cue.Intensity = defaultPacingIntensity

	default:
		if keyword, ok := firstMatch(lower, emotionKeywords); ok {
			cue.Category = CategoryEmotion
			cue.Emotion = normalizeEmotion(keyword)
			cue.Intensity = defaultEmotionIntensity
		}
	}

	// Modifiers are matched independently of category. Every match is
	// recorded; the last matching table entry sets the intensity.
	for _, mod := range intensityModifiers {
		if strings.Contains(lower, mod.keyword) {
			cue.Intensity = clamp01(mod.value)
			cue.Modifiers = append(cue.Modifiers, mod.keyword)
		}
	}

	return cue
}

// CategorizeAll classifies every raw cue in order.
func CategorizeAll(raws []string) []Cue {
	if len(raws) == 0 {
		return nil
	}
	cues := make([]Cue, 0, len(raws))
	for _, raw := range raws {
		cues = append(cues, CategorizeCue(raw))
	}
	return cues
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// firstMatch returns the first keyword in table order found in text.
func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func physicalEmotion(text string) string {
	for _, entry := range physicalEmotionIndicators {
		for _, indicator := range entry.indicators {
			if strings.Contains(text, indicator) {
				return entry.emotion
			}
		}
	}
	return "neutral"
}

func vocalEmotion(text string) string {
	for _, set := range vocalEmotionSets {
		for _, kw := range set.keywords {
			if strings.Contains(text, kw) {
				return set.emotion
			}
		}
	}
	return "neutral"
}

func normalizeEmotion(keyword string) string {
	if normalized, ok := emotionNormalization[keyword]; ok {
		return normalized
	}
	return keyword
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
