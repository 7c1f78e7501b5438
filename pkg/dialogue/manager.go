// Package dialogue maintains the usable conversational context for one
// player/NPC session: a bounded window of verbatim recent turns, at most one
// rolling summary of everything older, and simple biographical facts
// extracted as they appear.
package dialogue

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

const (
	// DefaultRecentTurns is how many verbatim turns stay in the prompt
	// context once a summary exists.
	DefaultRecentTurns = 6

	// DefaultSummarizeThreshold is the history length that triggers a
	// compression attempt.
	DefaultSummarizeThreshold = 12

	// maxTurnTextLen caps stored turn text.
	maxTurnTextLen = 500

	// maxRenderedFacts caps how many key facts the prompt context shows.
	maxRenderedFacts = 5

	// minCompressTurns is the smallest block of older turns worth
	// summarizing.
	minCompressTurns = 6
)

const summaryInstruction = "Summarize this dialogue in 2-3 sentences. " +
	"Capture the key information, emotional moments, and decisions made."

// Manager owns one conversation's turn history. Not safe for concurrent
// use; callers hold one Manager per session and must not let AddTurn
// interleave with an in-flight MaybeUpdateSummary.
//
// Exported fields round-trip through JSON for persistence by outer layers;
// the summarizer and logger are runtime-only and are reattached after
// decoding via WithSummarizer/WithLogger.
type Manager struct {
	History            []Turn          `json:"history,omitempty"`
	Summary            *RollingSummary `json:"summary,omitempty"`
	KeyFacts           []string        `json:"key_facts,omitempty"`
	TurnCount          int             `json:"turn_count"`
	RecentTurnsToKeep  int             `json:"recent_turns_to_keep"`
	SummarizeThreshold int             `json:"summarize_threshold"`

	summarizer Summarizer
	logger     *slog.Logger
}

// NewManager creates a manager with the default window configuration and no
// summarizer; without one, MaybeUpdateSummary is a no-op.
func NewManager() *Manager {
	return &Manager{
		RecentTurnsToKeep:  DefaultRecentTurns,
		SummarizeThreshold: DefaultSummarizeThreshold,
	}
}

// WithSummarizer attaches the summarization capability.
func (m *Manager) WithSummarizer(s Summarizer) *Manager {
	m.summarizer = s
	return m
}

// WithLogger attaches a logger.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	return m
}

// WithWindow overrides the recent-turn window and summarize threshold.
// Non-positive values keep the previous setting.
func (m *Manager) WithWindow(recentTurns, threshold int) *Manager {
	if recentTurns > 0 {
		m.RecentTurnsToKeep = recentTurns
	}
	if threshold > 0 {
		m.SummarizeThreshold = threshold
	}
	return m
}

func (m *Manager) log() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

func (m *Manager) recentKeep() int {
	if m.RecentTurnsToKeep <= 0 {
		return DefaultRecentTurns
	}
	return m.RecentTurnsToKeep
}

func (m *Manager) threshold() int {
	if m.SummarizeThreshold <= 0 {
		return DefaultSummarizeThreshold
	}
	return m.SummarizeThreshold
}

// AddTurn records a turn. It always succeeds: text is truncated to 500
// characters, the next sequence number is assigned, and a zero timestamp is
// filled with the current time. Player turns are additionally scanned for a
// self-introduced name.
func (m *Manager) AddTurn(turn Turn) {
	if len(turn.Text) > maxTurnTextLen {
		turn.Text = turn.Text[:maxTurnTextLen]
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	m.TurnCount++
	turn.SequenceNumber = m.TurnCount
	m.History = append(m.History, turn)

	if turn.Speaker == SpeakerPlayer {
		if name, ok := extractIntroducedName(turn.Text); ok {
			m.KeyFacts = append(m.KeyFacts, "Player's name: "+name)
			m.log().Debug("recorded player name from introduction", "name", name)
		}
	}
}

// ContextForPrompt renders the usable context for the response generator:
// the last five key facts, the rolling summary if present, and the recent
// turn window, joined by blank lines. Pure; safe to call every turn.
func (m *Manager) ContextForPrompt() string {
	var sections []string

	if len(m.KeyFacts) > 0 {
		facts := m.KeyFacts
		if len(facts) > maxRenderedFacts {
			facts = facts[len(facts)-maxRenderedFacts:]
		}
		var b strings.Builder
		b.WriteString("Key facts:")
		for _, fact := range facts {
			b.WriteString("\n- ")
			b.WriteString(fact)
		}
		sections = append(sections, b.String())
	}

	if m.Summary != nil && m.Summary.SummaryText != "" {
		sections = append(sections, "Summary of earlier dialogue: "+m.Summary.SummaryText)
	}

	if recent := m.recentWindow(); len(recent) > 0 {
		var b strings.Builder
		b.WriteString("Recent dialogue:")
		for _, turn := range recent {
			b.WriteString("\n")
			b.WriteString(turn.render())
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

// recentWindow returns the turns inside the configured recent window.
func (m *Manager) recentWindow() []Turn {
	keep := m.recentKeep()
	if len(m.History) <= keep {
		return m.History
	}
	return m.History[len(m.History)-keep:]
}

// NeedsSummary reports whether the history has grown enough for
// compression. Pure and independent of whether a summarizer is attached,
// so outer layers can use it to schedule summarization work elsewhere.
func (m *Manager) NeedsSummary() bool {
	if len(m.History) < m.threshold() {
		return false
	}
	return len(m.History)-m.recentKeep() >= minCompressTurns
}

// MaybeUpdateSummary compresses the turns older than the recent window into
// a single rolling summary, replacing any previous one. No-op unless the
// history has reached the threshold, at least six turns fall outside the
// recent window, and a summarizer is attached.
//
// Fail-soft: on summarizer error or context cancellation the history is
// left exactly as it was, the failure is logged, and the next threshold
// crossing retries. Returns true only when a new summary was installed.
func (m *Manager) MaybeUpdateSummary(ctx context.Context) bool {
	if m.summarizer == nil || !m.NeedsSummary() {
		return false
	}

	cut := len(m.History) - m.recentKeep()
	older := m.History[:cut]

	var transcript strings.Builder
	for _, turn := range older {
		transcript.WriteString(turn.render())
		transcript.WriteString("\n")
	}
	prompt := summaryInstruction + "\n\n" + transcript.String()

	text, err := m.summarizer.Summarize(ctx, prompt)
	if err != nil {
		m.log().Warn("summary update failed, keeping full history",
			"error", err,
			"older_turns", len(older))
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		m.log().Warn("summarizer returned empty text, keeping full history",
			"older_turns", len(older))
		return false
	}

	m.Summary = &RollingSummary{
		SummaryText: text,
		FirstSeq:    older[0].SequenceNumber,
		LastSeq:     older[len(older)-1].SequenceNumber,
		KeyFacts:    append([]string(nil), m.KeyFacts...),
	}
	m.History = append([]Turn(nil), m.History[cut:]...)

	m.log().Info("rolling summary updated",
		"compressed_turns", len(older),
		"first_seq", m.Summary.FirstSeq,
		"last_seq", m.Summary.LastSeq,
		"history_len", len(m.History))
	return true
}

// Reset clears history, summary, key facts, and the turn counter for a new
// conversation.
func (m *Manager) Reset() {
	m.History = nil
	m.Summary = nil
	m.KeyFacts = nil
	m.TurnCount = 0
}

// namePatterns are the self-introduction phrasings scanned for a player
// name. Matching is case-insensitive; the token after the phrase must be
// capitalized, which screens out "i'm tired" and its relatives.
var namePatterns = []string{
	"my name is ",
	"i'm ",
	"i am ",
	"call me ",
}

// extractIntroducedName pulls a self-introduced name out of a turn. Best
// effort by design: misses and the occasional false positive are accepted.
func extractIntroducedName(text string) (string, bool) {
	lower := strings.ToLower(text)

	for _, pattern := range namePatterns {
		idx := strings.Index(lower, pattern)
		if idx < 0 {
			continue
		}

		rest := text[idx+len(pattern):]
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}

		candidate := strings.TrimFunc(fields[0], func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if candidate == "" {
			continue
		}
		first := []rune(candidate)[0]
		if first >= 'A' && first <= 'Z' {
			return candidate, true
		}
	}
	return "", false
}
