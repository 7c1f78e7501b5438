// Package prompts assembles the message arrays sent to the response
// generator. It owns prompt wording and ordering; session state management
// stays in pkg/session.
package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

// Builder constructs chat messages for LLM interaction using a fluent
// interface.
type Builder struct {
	sess        *session.Session
	scene       *scene.Scene
	userMessage string
	userRole    string
	directives  []string
	messages    []chat.ChatMessage
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{
		messages: make([]chat.ChatMessage, 0),
	}
}

// WithSession sets the session whose trackers supply context.
func (b *Builder) WithSession(s *session.Session) *Builder {
	b.sess = s
	return b
}

// WithScene sets the scene (loaded by the caller on each request).
func (b *Builder) WithScene(sc *scene.Scene) *Builder {
	b.scene = sc
	return b
}

// WithUserMessage sets the player's message and role.
func (b *Builder) WithUserMessage(message string, role string) *Builder {
	b.userMessage = message
	b.userRole = role
	return b
}

// WithDirective appends a performance directive (escalation tone, forced
// beat) delivered as a system message before the final reminders.
func (b *Builder) WithDirective(directive string) *Builder {
	if directive != "" {
		b.directives = append(b.directives, directive)
	}
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.sess == nil {
		return nil, fmt.Errorf("session is required")
	}
	if b.scene == nil {
		return nil, fmt.Errorf("scene is required")
	}

	b.messages = make([]chat.ChatMessage, 0)

	// 1. System prompt with scene direction and conversation context
	b.addSystemPrompt()

	// 2. Player message
	b.addUserMessage()

	// 3. Performance directives (if any)
	b.addDirectives()

	// 4. Final reminders
	b.addFinalPrompt()

	return b.messages, nil
}

// addSystemPrompt builds the main system prompt from the NPC identity, the
// narrative machine's direction, and the dialogue manager's context.
func (b *Builder) addSystemPrompt() {
	var sb strings.Builder
	sb.WriteString(BuildSystemPrompt(b.scene.NPC, b.playerName()))

	if direction := b.sceneDirection(); direction != "" {
		sb.WriteString("\n\n" + direction)
	}

	if context := b.sess.Dialogue.ContextForPrompt(); context != "" {
		sb.WriteString("\n\n" + fmt.Sprintf(ContextPromptTemplate, context))
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
}

// sceneDirection renders the narrative machine's current guidance: phase
// instruction, a reaction hint for the player's latest turn type, and the
// topics in play.
func (b *Builder) sceneDirection() string {
	m := b.sess.Narrative
	nc := m.Context()

	var lines []string
	if inst := m.PhaseInstruction(); inst != "" {
		lines = append(lines, "- "+inst)
	}
	if t := b.latestTurnType(); t != "" {
		lines = append(lines, "- "+m.TurnTypeInstruction(t))
	}
	if len(nc.SuggestedTopics) > 0 {
		lines = append(lines, "- Natural subjects for this beat: "+strings.Join(nc.SuggestedTopics, ", "))
	}
	if len(nc.AvoidTopics) > 0 {
		lines = append(lines, "- Covered recently, avoid repeating: "+strings.Join(nc.AvoidTopics, ", "))
	}
	if nc.ShouldAdvance {
		lines = append(lines, "- This beat has run long. Look for a natural close.")
	}
	if len(lines) == 0 {
		return ""
	}
	return "### Scene direction\n" + strings.Join(lines, "\n")
}

// latestTurnType is the classification of the most recent player turn, if
// one has been recorded.
func (b *Builder) latestTurnType() narrative.TurnType {
	records := b.sess.Narrative.Records
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Speaker == "player" {
			return records[i].Type
		}
	}
	return ""
}

// addUserMessage adds the current player message to the message array.
func (b *Builder) addUserMessage() {
	if b.userMessage == "" {
		return
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    b.userRole,
		Content: chat.FormatWithSpeaker(b.userMessage, b.playerName()),
	})
}

// addDirectives adds queued performance directives if present.
func (b *Builder) addDirectives() {
	body := FormatDirectives(b.directives)
	if body == "" {
		return
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: body,
	})
}

// addFinalPrompt adds session-end or standard reminders.
func (b *Builder) addFinalPrompt() {
	finalPrompt := UserPostPrompt
	if b.sess.Ended {
		finalPrompt = SessionEndSystemPrompt
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: finalPrompt,
	})
}

func (b *Builder) playerName() string {
	if b.sess != nil && b.sess.PlayerName != "" {
		return b.sess.PlayerName
	}
	return "Player"
}

// BuildMessages is a convenience function for the common case. It creates a
// builder, sets all parameters, and builds the messages in one call.
func BuildMessages(
	sess *session.Session,
	sc *scene.Scene,
	message string,
	role string,
	directives ...string,
) ([]chat.ChatMessage, error) {
	b := New().
		WithSession(sess).
		WithScene(sc).
		WithUserMessage(message, role)
	for _, d := range directives {
		b.WithDirective(d)
	}
	return b.Build()
}
