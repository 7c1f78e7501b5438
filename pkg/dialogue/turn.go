package dialogue

import (
	"context"
	"strings"
	"time"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerPlayer Speaker = "player"
	SpeakerNPC    Speaker = "npc"
	SpeakerSystem Speaker = "system"
)

// Turn is one utterance in a conversation. Immutable once stored; sequence
// numbers are assigned by the Manager and are strictly increasing and
// gap-free within one conversation.
type Turn struct {
	Speaker        Speaker   `json:"speaker"`
	Text           string    `json:"text"`
	SequenceNumber int       `json:"sequence_number"`
	Timestamp      time.Time `json:"timestamp"`
	Emotion        string    `json:"emotion,omitempty"`
	Topics         []string  `json:"topics,omitempty"`
}

// render formats a turn the way both the prompt context and the
// summarization transcript present it.
func (t Turn) render() string {
	return "[" + strings.ToUpper(string(t.Speaker)) + "]: " + t.Text
}

// RollingSummary is the single compressed replacement for a block of older
// turns. At most one exists per conversation; FirstSeq/LastSeq cover the
// compressed block and never overlap turns still held verbatim.
type RollingSummary struct {
	SummaryText string   `json:"summary_text"`
	FirstSeq    int      `json:"first_seq"`
	LastSeq     int      `json:"last_seq"`
	KeyFacts    []string `json:"key_facts,omitempty"`
}

// Summarizer is the injected capability the Manager uses to compress older
// turns. Implementations may fail; the Manager treats any error as "no
// summary this cycle" and leaves history untouched.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
