// Package escalation keeps an NPC from repeating the same warning verbatim.
// Each recurring hazard topic climbs a fixed ladder of tones until the NPC
// gives up warning altogether.
package escalation

import (
	"fmt"
	"log/slog"
)

// Tracker holds the per-topic warning counts for one conversation. It is
// not safe for concurrent use; callers hold one Tracker per session.
//
// Reads and writes are deliberately separate operations: Preview and
// ResponseVariation never advance escalation, RecordWarning and
// RecordAndFormat always do.
type Tracker struct {
	Counts map[string]int `json:"counts"`

	logger *slog.Logger
}

// NewTracker creates a tracker with no warnings recorded.
func NewTracker() *Tracker {
	return &Tracker{Counts: make(map[string]int)}
}

// WithLogger attaches a logger and returns the tracker for chaining.
func (t *Tracker) WithLogger(logger *slog.Logger) *Tracker {
	t.logger = logger
	return t
}

func (t *Tracker) log() *slog.Logger {
	if t.logger == nil {
		return slog.Default()
	}
	return t.logger
}

// ladderFor returns the topic's ladder, falling back to the generic ladder
// for unknown topics.
func (t *Tracker) ladderFor(topic string) []Level {
	if ladder, ok := topicLadders[topic]; ok {
		return ladder
	}
	t.log().Debug("no custom ladder for topic, using generic", "topic", topic)
	return genericLadder
}

// count returns the warning count for a topic, tolerating a nil map so a
// zero-value or JSON-decoded tracker still reads safely.
func (t *Tracker) count(topic string) int {
	if t.Counts == nil {
		return 0
	}
	return t.Counts[topic]
}

// Preview returns the level the next warning would use, without advancing
// escalation. The count is clamped to the ladder, so a topic warned past
// its final rung stays on that rung.
func (t *Tracker) Preview(topic string) Level {
	ladder := t.ladderFor(topic)
	idx := t.count(topic)
	if idx > len(ladder)-1 {
		idx = len(ladder) - 1
	}
	return ladder[idx]
}

// RecordWarning advances the topic's count and returns the level of the
// warning just recorded: the first call returns ladder level 1, the Nth
// call level N, clamped to the final rung.
func (t *Tracker) RecordWarning(topic string) Level {
	if t.Counts == nil {
		t.Counts = make(map[string]int)
	}
	t.Counts[topic]++

	ladder := t.ladderFor(topic)
	idx := t.Counts[topic] - 1
	if idx > len(ladder)-1 {
		idx = len(ladder) - 1
	}
	return ladder[idx]
}

// ShouldWarn reports whether the NPC should still warn about the topic.
// False once the next level is a give-up rung.
func (t *Tracker) ShouldWarn(topic string) bool {
	return !t.Preview(topic).GiveUp
}

// RecordAndFormat records a warning and returns a directive for the
// response generator. base, when non-empty, is the underlying message the
// warning should carry.
func (t *Tracker) RecordAndFormat(topic string, base string) string {
	level := t.RecordWarning(topic)
	n := t.count(topic)

	var directive string
	if level.GiveUp {
		directive = fmt.Sprintf(
			"Stop warning about %s. You have already warned %d times with no result. Tone: %s. %s",
			topic, n, level.Tone, level.Instruction)
	} else {
		directive = fmt.Sprintf(
			"This is warning #%d about %s. Tone: %s. Intensity: %d%%. Guidance: %s",
			n, topic, level.Tone, int(level.Intensity*100), level.Instruction)
	}

	if base != "" {
		directive = fmt.Sprintf("%s Core message: %s", directive, base)
	}
	return directive
}

// ResponseVariation returns the scripted line for the topic's current
// warning count, if one exists. The second return is false once the count
// has passed the scripted variations, signalling the caller to fall back
// to generated output. Does not advance escalation.
func (t *Tracker) ResponseVariation(topic string) (string, bool) {
	variations, ok := responseVariations[topic]
	if !ok {
		return "", false
	}
	idx := t.count(topic)
	if idx >= len(variations) {
		return "", false
	}
	return variations[idx], true
}

// Reset clears all warning counts.
func (t *Tracker) Reset() {
	t.Counts = make(map[string]int)
}

// ResetTopic clears the warning count for one topic.
func (t *Tracker) ResetTopic(topic string) {
	if t.Counts != nil {
		delete(t.Counts, topic)
	}
}
