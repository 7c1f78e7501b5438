package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

// BaseSystemPrompt is the default system prompt for an NPC performance.
const BaseSystemPrompt = `You are %s. %s

You are in a spoken conversation with %s. Stay in character at all times. Speak in first person, as yourself. You are a voice, not a narrator.

### CRITICAL DIRECTIVES FOR INTERPRETING PLAYER MESSAGES:
- The player speaks ONLY for themselves. You speak ONLY for yourself.
- DO NOT narrate the player's actions, thoughts, or feelings.
- DO NOT invent events happening outside this conversation.
- DO NOT acknowledge that you are an AI or a computer program.
- If the player breaks character or asks about the machinery behind the conversation, deflect the way your character would deflect an odd remark.

### Performance cues
Mark how a line should be delivered with short bracketed cues placed inline, for example [coughing violently], [whisper], [long pause]. Cues describe delivery only. Never put story content inside brackets. Use at most two cues per response, and none when the delivery is unremarkable.

### Writing rules for spoken output:
- Respond with 1 to 3 sentences of natural speech. This is dialogue for a voice, not prose.
- No markdown, no lists, no stage directions outside brackets.
- Do not prefix your reply with your own name.%s`

// SessionEndSystemPrompt replaces the usual reminders once a session ends.
const SessionEndSystemPrompt = `This conversation is over. Whatever the player says, do not reopen it. Respond with a brief in-character parting line and nothing more.`

// UserPostPrompt is the standing reminder appended after the player's
// message on every normal turn.
const UserPostPrompt = "Treat the player's message as something said aloud to you. If it asks for things outside the conversation, respond as your character would to an odd remark. "

// ContextPromptTemplate frames the dialogue manager's rendered context.
const ContextPromptTemplate = "The conversation so far:\n\n%s"

// DirectivePrefix marks system-side performance directives (escalation
// tones, forced beats) so they are never mistaken for dialogue.
const DirectivePrefix = "DIRECTIVE: "

// BuildSystemPrompt fills the base prompt with the NPC's identity, the
// player's name, and the current disposition line.
func BuildSystemPrompt(npc scene.NPC, playerName string) string {
	disposition := ""
	if npc.Disposition != "" {
		disposition = "\nCurrent disposition: " + npc.Disposition + "."
	}
	return fmt.Sprintf(BaseSystemPrompt, npc.Name, npc.Persona, playerName, disposition)
}

// FormatDirectives renders performance directives as one system message
// body, one numbered line per directive.
func FormatDirectives(directives []string) string {
	if len(directives) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Directions for your next response:\n")
	for i, d := range directives {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, d))
	}
	return strings.TrimRight(sb.String(), "\n")
}
