package narrative

import "strings"

// TurnType is the coarse classification of a single turn's content.
type TurnType string

const (
	TurnQuestion  TurnType = "question"
	TurnStatement TurnType = "statement"
	TurnAction    TurnType = "action"
	TurnSilence   TurnType = "silence"
	TurnEmotion   TurnType = "emotion"
	TurnUnknown   TurnType = "unknown"
)

// interrogativeWords mark a turn as a question when they lead it.
var interrogativeWords = []string{
	"what", "who", "where", "when", "why", "how", "which",
	"is", "are", "am", "was", "were",
	"do", "does", "did",
	"can", "could", "will", "would", "should", "shall", "may",
	"have", "has",
}

// emotionWords flag emotionally loaded turns. This list is intentionally
// coarser than the cue classifier's tables; it only has to steer the
// generator's framing, not voice parameters.
var emotionWords = []string{
	"feel", "feeling", "felt",
	"scared", "afraid", "terrified", "worried", "anxious", "nervous",
	"angry", "furious", "upset", "frustrated",
	"sad", "miserable", "hurt", "lonely",
	"happy", "glad", "excited", "relieved",
	"love", "hate", "miss you", "trust you",
}

// actionWords flag turns describing a physical act rather than speech.
var actionWords = []string{
	"walk", "run", "climb", "crawl", "hide",
	"take", "grab", "pick up", "drop", "hand over", "give you",
	"open", "close", "push", "pull", "press", "turn the",
	"look at", "look around", "search", "examine", "inspect",
	"use the", "break", "cut", "throw",
}

// classifyTurn applies the fixed precedence question > emotion > action >
// statement. Silence is inferred only for empty content; callers supply it
// explicitly otherwise.
func classifyTurn(content string) TurnType {
	trimmed := strings.TrimSpace(strings.ToLower(content))
	if trimmed == "" {
		return TurnSilence
	}

	if strings.Contains(trimmed, "?") {
		return TurnQuestion
	}
	firstWord := trimmed
	if i := strings.IndexAny(trimmed, " \t,.!"); i > 0 {
		firstWord = trimmed[:i]
	}
	for _, w := range interrogativeWords {
		if firstWord == w {
			return TurnQuestion
		}
	}

	for _, w := range emotionWords {
		if strings.Contains(trimmed, w) {
			return TurnEmotion
		}
	}

	for _, w := range actionWords {
		if strings.Contains(trimmed, w) {
			return TurnAction
		}
	}

	return TurnStatement
}

// turnTypeInstructions are directives for the response generator keyed by
// the classified turn type.
var turnTypeInstructions = map[TurnType]string{
	TurnQuestion:  "Answer the question directly before adding anything else.",
	TurnStatement: "Acknowledge what was said and build on it.",
	TurnAction:    "React to what the player did before speaking.",
	TurnSilence:   "Fill the silence naturally without pressing the player.",
	TurnEmotion:   "Respond to the feeling first and the content second.",
}

// genericTurnInstruction backs unknown turn types.
const genericTurnInstruction = "Respond naturally."
