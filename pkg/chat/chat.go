package chat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/emotion"
)

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // NPC
	ChatRoleSystem = "system"    // Directives and scene framing
)

// MaxMessageLength bounds inbound player text at the API edge. The
// dialogue manager applies its own tighter storage truncation.
const MaxMessageLength = 2000

// ChatMessage is a single message in an LLM conversation. The shape is
// shared by the OpenAI-compatible and Anthropic wire formats.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the raw model output for one completion, before cue
// extraction and speech filtering.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

// TurnRequest is a player turn submitted to the dialogue-engine api.
type TurnRequest struct {
	SessionID uuid.UUID `json:"session_id"` // Unique ID for the session
	Text      string    `json:"text"`
	TurnType  string    `json:"turn_type,omitempty"` // optional explicit classification
	Topics    []string  `json:"topics,omitempty"`    // topics the caller knows this turn touches
}

// TurnResponse is the NPC's reply to a player turn. Reply carries the
// performance cues inline; CleanText is the same utterance with cues
// stripped for display and speech synthesis.
type TurnResponse struct {
	SessionID      uuid.UUID     `json:"session_id,omitempty"`
	Reply          string        `json:"reply,omitempty"`
	CleanText      string        `json:"clean_text,omitempty"`
	Cues           []emotion.Cue `json:"cues,omitempty"`
	Phase          string        `json:"phase,omitempty"`
	SequenceNumber int           `json:"sequence_number,omitempty"`
	AudioURL       string        `json:"audio_url,omitempty"`
	SessionEnded   bool          `json:"session_ended,omitempty"`
}

func (tr *TurnRequest) Validate() error {
	if tr.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if len(tr.Text) > MaxMessageLength {
		return fmt.Errorf("text exceeds maximum length of %d characters", MaxMessageLength)
	}
	return nil
}
