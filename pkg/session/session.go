// Package session ties the four conversation trackers together behind one
// aggregate. The trackers never talk to each other; every cross-tracker
// sequence lives in the driver methods here, so callers get one obvious
// path for each kind of turn.
package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/emotion"
	"github.com/jwebster45206/dialogue-engine/pkg/escalation"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
)

// Session is the live state of one player/NPC conversation.
type Session struct {
	ID         uuid.UUID `json:"id"` // Unique ID per session
	SceneID    string    `json:"scene_id"`
	ProfileID  uuid.UUID `json:"profile_id,omitempty"`  // optional player profile
	PlayerName string    `json:"player_name,omitempty"` // display name for prompts
	Ended      bool      `json:"ended,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Dialogue   *dialogue.Manager   `json:"dialogue,omitempty"`
	Narrative  *narrative.Machine  `json:"narrative,omitempty"`
	Escalation *escalation.Tracker `json:"escalation,omitempty"`

	logger *slog.Logger
}

// New creates a session for a scene, opening in the given phase. An empty
// phase opens in greeting.
func New(sceneID string, initial narrative.Phase) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:         uuid.New(),
		SceneID:    sceneID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Dialogue:   dialogue.NewManager(),
		Narrative:  narrative.NewMachine(),
		Escalation: escalation.NewTracker(),
	}
	if initial != "" {
		s.Narrative.Reset(initial)
	}
	return s
}

// Attach rebinds the runtime dependencies the trackers lose across JSON
// persistence. Safe on sessions loaded from storage in any state; missing
// trackers are recreated empty.
func (s *Session) Attach(summarizer dialogue.Summarizer, logger *slog.Logger) *Session {
	if s.Dialogue == nil {
		s.Dialogue = dialogue.NewManager()
	}
	if s.Narrative == nil {
		s.Narrative = narrative.NewMachine()
	}
	if s.Escalation == nil {
		s.Escalation = escalation.NewTracker()
	}
	s.Dialogue.WithSummarizer(summarizer).WithLogger(logger)
	s.Narrative.WithLogger(logger)
	s.Escalation.WithLogger(logger)
	s.logger = logger
	return s
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// RecordPlayerTurn feeds one player turn to the dialogue history and the
// narrative machine. An empty turnType lets the machine classify the text.
func (s *Session) RecordPlayerTurn(text string, turnType narrative.TurnType, topics []string) {
	s.Dialogue.AddTurn(dialogue.Turn{
		Speaker: dialogue.SpeakerPlayer,
		Text:    text,
		Topics:  topics,
	})
	s.Narrative.RecordTurn(string(dialogue.SpeakerPlayer), text, turnType, topics)
	s.touch()
}

// NPCTurnResult is what RecordNPCTurn hands back for rendering and speech.
type NPCTurnResult struct {
	CleanText string
	Cues      []emotion.Cue
}

// RecordNPCTurn processes a raw NPC utterance: extracts and categorizes the
// bracketed performance cues, stores the cleaned text in the dialogue
// history, and counts the turn on the narrative machine. When cues are
// present the turn is recorded as emotional and the first cue's emotion is
// kept on the stored turn.
func (s *Session) RecordNPCTurn(text string) NPCTurnResult {
	clean, raws := emotion.ExtractCues(text)
	cues := emotion.CategorizeAll(raws)

	turn := dialogue.Turn{
		Speaker: dialogue.SpeakerNPC,
		Text:    clean,
	}
	var turnType narrative.TurnType
	if len(cues) > 0 {
		turn.Emotion = cues[0].Emotion
		turnType = narrative.TurnEmotion
	}
	s.Dialogue.AddTurn(turn)
	s.Narrative.RecordTurn(string(dialogue.SpeakerNPC), clean, turnType, nil)
	s.touch()

	return NPCTurnResult{CleanText: clean, Cues: cues}
}

// HazardResult is the outcome of one hazard warning. Scripted results carry
// a pre-written NPC line to speak verbatim; otherwise Text is an escalation
// directive for the response generator.
type HazardResult struct {
	Scripted bool
	Text     string
	Level    escalation.Level
}

// HazardDirective records one warning about a hazard topic. Scripted
// variations are preferred while they last; after that the generator gets a
// tone directive built from the topic's ladder.
func (s *Session) HazardDirective(topic, coreMessage string) HazardResult {
	if line, ok := s.Escalation.ResponseVariation(topic); ok {
		level := s.Escalation.RecordWarning(topic)
		s.touch()
		return HazardResult{Scripted: true, Text: line, Level: level}
	}
	level := s.Escalation.Preview(topic)
	directive := s.Escalation.RecordAndFormat(topic, coreMessage)
	s.touch()
	return HazardResult{Text: directive, Level: level}
}

// ShouldWarn reports whether the NPC still has anything to say about a
// topic, or has given up on it.
func (s *Session) ShouldWarn(topic string) bool {
	return s.Escalation.ShouldWarn(topic)
}

// NeedsSummary reports whether the dialogue history is due for
// compression. The glue layers use it to schedule summarization.
func (s *Session) NeedsSummary() bool {
	return s.Dialogue.NeedsSummary()
}

// End marks the session finished. Idempotent.
func (s *Session) End() {
	if s.Ended {
		return
	}
	s.Ended = true
	s.touch()
}
