package escalation

// Level is one rung of an escalation ladder. Ladders are static; the only
// mutable state anywhere in this package is the per-topic warning count.
type Level struct {
	Level       int     `json:"level"`
	Tone        string  `json:"tone"`
	Intensity   float64 `json:"intensity"`
	Instruction string  `json:"instruction"`
	GiveUp      bool    `json:"give_up"`
}

// topicLadders holds the custom ladders for recurring hazards. Topics
// without an entry fall back to genericLadder. Every ladder sets GiveUp
// only on its final rung.
var topicLadders = map[string][]Level{
	"o2_warning": {
		{Level: 1, Tone: "informative", Intensity: 0.2, Instruction: "Mention the falling oxygen reading in passing, without alarm."},
		{Level: 2, Tone: "concerned", Intensity: 0.4, Instruction: "Point out the oxygen level directly and ask them to address it."},
		{Level: 3, Tone: "firm", Intensity: 0.6, Instruction: "Insist they deal with the oxygen problem before anything else."},
		{Level: 4, Tone: "urgent", Intensity: 0.85, Instruction: "Drop all other subjects. Demand immediate action on the oxygen supply."},
		{Level: 5, Tone: "resigned", Intensity: 0.3, Instruction: "Acknowledge they have made their choice and say nothing more about it.", GiveUp: true},
	},
	"radiation_zone": {
		{Level: 1, Tone: "matter-of-fact", Intensity: 0.3, Instruction: "Note the radiation reading near that section."},
		{Level: 2, Tone: "warning", Intensity: 0.55, Instruction: "Warn them clearly about the exposure risk in that section."},
		{Level: 3, Tone: "alarmed", Intensity: 0.8, Instruction: "Tell them the exposure is already dangerous and they must turn back."},
		{Level: 4, Tone: "resigned", Intensity: 0.35, Instruction: "Stop arguing. Note the dosimeter reading and let them go.", GiveUp: true},
	},
	"restricted_area": {
		{Level: 1, Tone: "polite", Intensity: 0.25, Instruction: "Remind them that section is off limits."},
		{Level: 2, Tone: "stern", Intensity: 0.5, Instruction: "State firmly that they are not authorized for that section."},
		{Level: 3, Tone: "threatening", Intensity: 0.75, Instruction: "Warn that continued attempts will be reported."},
		{Level: 4, Tone: "cold", Intensity: 0.4, Instruction: "Say nothing further about the restriction. Note their behavior silently.", GiveUp: true},
	},
}

// KnownTopic reports whether a topic has a custom ladder. Unknown topics
// still work through the generic ladder; scene linting uses this to flag
// probable typos.
func KnownTopic(topic string) bool {
	_, ok := topicLadders[topic]
	return ok
}

// genericLadder backs any topic without a custom ladder.
var genericLadder = []Level{
	{Level: 1, Tone: "neutral", Intensity: 0.3, Instruction: "Mention the concern once, conversationally."},
	{Level: 2, Tone: "firm", Intensity: 0.6, Instruction: "Repeat the concern with clear emphasis."},
	{Level: 3, Tone: "resigned", Intensity: 0.4, Instruction: "Let the matter drop. They have been told enough times.", GiveUp: true},
}

// responseVariations are pre-written lines for the first few warnings on a
// topic, indexed by warning count. Once the count passes the scripted lines
// the caller falls back to generated output.
var responseVariations = map[string][]string{
	"o2_warning": {
		"O2 reserve just dipped under forty percent. Worth keeping an eye on.",
		"That's the second time the O2 alarm has tripped. I'd take it seriously.",
		"Listen to me. The oxygen is not going to fix itself.",
	},
	"restricted_area": {
		"That section's sealed. You'd need clearance I can't give you.",
		"I already told you, that section is off limits.",
	},
}
