// Package narrative tracks which dramatic phase a conversation is in and
// produces framing instructions for the response generator. Transitions are
// validated against a fixed table and always caller-initiated: turn budgets
// only ever raise a should-advance flag.
package narrative

import "log/slog"

// Turn record retention and topic recency caps.
const (
	maxTurnRecords  = 20
	maxRecentTopics = 5
	maxContentLen   = 200
)

// TurnRecord is the machine's bounded memory of one turn. Distinct from the
// dialogue manager's Turn: content here is capped harder and carries the
// phase it was recorded in.
type TurnRecord struct {
	Speaker    string   `json:"speaker"`
	Content    string   `json:"content"`
	Type       TurnType `json:"type"`
	TurnNumber int      `json:"turn_number"`
	Phase      Phase    `json:"phase"`
}

// Context is a pure snapshot handed to the response pipeline each turn.
type Context struct {
	Phase           Phase    `json:"phase"`
	TurnCount       int      `json:"turn_count"`
	TurnsInPhase    int      `json:"turns_in_phase"`
	ShouldAdvance   bool     `json:"should_advance"`
	SuggestedTopics []string `json:"suggested_topics"`
	AvoidTopics     []string `json:"avoid_topics"`
}

// Machine tracks narrative phase for one conversation. Not safe for
// concurrent use; callers hold one Machine per session.
type Machine struct {
	Current         Phase        `json:"current_phase"`
	TurnCount       int          `json:"turn_count"`
	TurnsInPhase    int          `json:"turns_in_phase"`
	Records         []TurnRecord `json:"records,omitempty"`
	RecentTopics    []string     `json:"recent_topics,omitempty"`
	DiscussedTopics []string     `json:"discussed_topics,omitempty"`

	logger *slog.Logger
}

// NewMachine creates a machine starting in the greeting phase.
func NewMachine() *Machine {
	return &Machine{Current: PhaseGreeting}
}

// WithLogger attaches a logger and returns the machine for chaining.
func (m *Machine) WithLogger(logger *slog.Logger) *Machine {
	m.logger = logger
	return m
}

func (m *Machine) log() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// RecordTurn counts a turn, classifies it when turnType is empty, stores a
// bounded TurnRecord, and folds any topics into the recency list and the
// cumulative discussed set.
func (m *Machine) RecordTurn(speaker string, content string, turnType TurnType, topics []string) {
	m.TurnCount++
	m.TurnsInPhase++

	if turnType == "" {
		turnType = classifyTurn(content)
	}

	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}

	m.Records = append(m.Records, TurnRecord{
		Speaker:    speaker,
		Content:    content,
		Type:       turnType,
		TurnNumber: m.TurnCount,
		Phase:      m.Current,
	})
	if len(m.Records) > maxTurnRecords {
		m.Records = m.Records[len(m.Records)-maxTurnRecords:]
	}

	for _, topic := range topics {
		m.recordTopic(topic)
	}
}

// recordTopic moves a topic to the front of the recency list and adds it to
// the discussed set if new.
func (m *Machine) recordTopic(topic string) {
	if topic == "" {
		return
	}

	recent := make([]string, 0, maxRecentTopics)
	recent = append(recent, topic)
	for _, t := range m.RecentTopics {
		if t == topic {
			continue
		}
		recent = append(recent, t)
		if len(recent) == maxRecentTopics {
			break
		}
	}
	m.RecentTopics = recent

	for _, t := range m.DiscussedTopics {
		if t == topic {
			return
		}
	}
	m.DiscussedTopics = append(m.DiscussedTopics, topic)
}

// Advance moves to the first allowed transition from the current phase.
// Returns false (with a warning log) from terminal or unknown phases.
func (m *Machine) Advance() bool {
	allowed := phaseTransitions[m.Current]
	if len(allowed) == 0 {
		m.log().Warn("no transitions available from phase", "phase", m.Current)
		return false
	}
	return m.AdvanceTo(allowed[0])
}

// AdvanceTo moves to target if the transition table allows it. On success
// the in-phase turn counter resets and it returns true; otherwise the phase
// is unchanged, a warning is logged, and it returns false.
func (m *Machine) AdvanceTo(target Phase) bool {
	for _, allowed := range phaseTransitions[m.Current] {
		if target == allowed {
			m.log().Info("advancing narrative phase", "from", m.Current, "to", target)
			m.Current = target
			m.TurnsInPhase = 0
			return true
		}
	}

	m.log().Warn("invalid phase transition requested",
		"from", m.Current,
		"to", target,
		"allowed", phaseTransitions[m.Current])
	return false
}

// Context returns a pure snapshot for the response pipeline.
func (m *Machine) Context() Context {
	return Context{
		Phase:           m.Current,
		TurnCount:       m.TurnCount,
		TurnsInPhase:    m.TurnsInPhase,
		ShouldAdvance:   m.ShouldAdvance(),
		SuggestedTopics: phaseSuggestedTopics[m.Current],
		AvoidTopics:     m.RecentTopics,
	}
}

// ShouldAdvance reports whether the current phase has used up its turn
// budget. Advisory only.
func (m *Machine) ShouldAdvance() bool {
	budget, ok := phaseTurnBudgets[m.Current]
	if !ok {
		return false
	}
	return m.TurnsInPhase >= budget
}

// PhaseInstruction returns the generator directive for the current phase.
func (m *Machine) PhaseInstruction() string {
	if instruction, ok := phaseInstructions[m.Current]; ok {
		return instruction
	}
	return genericTurnInstruction
}

// TurnTypeInstruction returns the generator directive for a turn type,
// falling back to a generic directive for unknown types.
func (m *Machine) TurnTypeInstruction(t TurnType) string {
	if instruction, ok := turnTypeInstructions[t]; ok {
		return instruction
	}
	return genericTurnInstruction
}

// Reset returns the machine to a fresh conversation in the given phase;
// the zero value restarts at greeting.
func (m *Machine) Reset(initial Phase) {
	if initial == "" || !ValidPhase(initial) {
		initial = PhaseGreeting
	}
	m.Current = initial
	m.TurnCount = 0
	m.TurnsInPhase = 0
	m.Records = nil
	m.RecentTopics = nil
	m.DiscussedTopics = nil
}
