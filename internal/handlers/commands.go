package handlers

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

type commandType string

const (
	cmdStatus commandType = "status"
	cmdFacts  commandType = "facts"
	cmdTopics commandType = "topics"
	cmdNone   commandType = "" // No command, used for fallback
)

// CommandResult represents the result of attempting to handle a shortcut
// command.
type CommandResult struct {
	Handled bool   // True if the command was fully resolved and no LLM call is needed
	Message string // Message to return to the player
}

// parseCommand parses the input string and returns the command type if
// recognized. If not recognized, returns cmdNone.
func parseCommand(input string) commandType {
	known := map[string]commandType{
		"status": cmdStatus,
		"facts":  cmdFacts,
		"topics": cmdTopics,
	}
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return cmdNone
	}
	if cmd, ok := known[trimmed]; ok {
		return cmd
	}
	return cmdNone
}

// TryHandleCommand attempts to handle shortcut commands without requiring
// LLM processing. These are out-of-character queries about the session, so
// they never enter the dialogue history.
func TryHandleCommand(sess *session.Session, input string) *CommandResult {
	switch parseCommand(input) {
	case cmdStatus:
		return &CommandResult{Handled: true, Message: describeStatus(sess)}
	case cmdFacts:
		return &CommandResult{Handled: true, Message: describeFacts(sess)}
	case cmdTopics:
		return &CommandResult{Handled: true, Message: describeTopics(sess)}
	default:
		return &CommandResult{Handled: false, Message: input}
	}
}

func describeStatus(sess *session.Session) string {
	nc := sess.Narrative.Context()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Phase: %s (turn %d overall, %d in this phase)", nc.Phase, nc.TurnCount, nc.TurnsInPhase)
	if nc.ShouldAdvance {
		sb.WriteString("\nThis phase has run past its budget.")
	}
	if sess.Dialogue.Summary != nil {
		fmt.Fprintf(&sb, "\nEarlier dialogue (turns %d-%d) is summarized.",
			sess.Dialogue.Summary.FirstSeq, sess.Dialogue.Summary.LastSeq)
	}
	if sess.Ended {
		sb.WriteString("\nThis conversation has ended.")
	}
	return sb.String()
}

func describeFacts(sess *session.Session) string {
	facts := sess.Dialogue.KeyFacts
	if len(facts) == 0 {
		return "No facts recorded yet."
	}
	return "Known facts:\n- " + strings.Join(facts, "\n- ")
}

func describeTopics(sess *session.Session) string {
	discussed := sess.Narrative.DiscussedTopics
	if len(discussed) == 0 {
		return "No topics discussed yet."
	}
	var sb strings.Builder
	sb.WriteString("Discussed topics:\n- " + strings.Join(discussed, "\n- "))
	if recent := sess.Narrative.RecentTopics; len(recent) > 0 {
		sb.WriteString("\nRecently: " + strings.Join(recent, ", "))
	}
	return sb.String()
}
