package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special user prompt values that trigger non-turn actions
const (
	// ResetSessionPrompt discards the current session and starts a fresh
	// one from the suite's scene.
	ResetSessionPrompt = "RESET_SESSION"
	// EndSessionPrompt ends the conversation via the end action.
	EndSessionPrompt = "END_SESSION"
	// AdvancePhasePrompt requests a phase transition. Append ":<phase>" to
	// name an explicit target, e.g. "ADVANCE_PHASE:crisis".
	AdvancePhasePrompt = "ADVANCE_PHASE"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name       string     `json:"name"`
	Scene      string     `json:"scene,omitempty"`       // Scene filename, used for regular tests
	PlayerName string     `json:"player_name,omitempty"` // Optional player name for the session
	Steps      []TestStep `json:"steps,omitempty"`       // Used for regular tests
	Cases      []string   `json:"cases,omitempty"`       // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes.
// UserPrompt is sent as a player turn unless it is one of the control
// prompts above.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	UserPrompt   string       `json:"user_prompt"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Session properties - aligned with pkg/session/session.go
	Phase         *string        `json:"phase,omitempty"`          // Current narrative phase
	TurnCount     *int           `json:"turn_count,omitempty"`     // Total turn count
	TurnsInPhase  *int           `json:"turns_in_phase,omitempty"` // Turns spent in the current phase
	Ended         *bool          `json:"ended,omitempty"`          // Session ended state
	KeyFacts      []string       `json:"key_facts,omitempty"`      // Substrings that must appear in recorded facts
	Topics        []string       `json:"topics,omitempty"`         // Topics that must appear in discussed topics
	WarningCounts map[string]int `json:"warning_counts,omitempty"` // Escalation warning count per hazard topic

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
	Cue                 *string  `json:"cue,omitempty"` // Expected first emotion cue on the NPC line
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	RequestID    string // Set when the turn went through the queue
	IsControl    bool   // True for reset/advance/end steps (not counted as turns)
}

// TestJob represents a test suite to be executed by a worker
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
