package chat

import "strings"

// maxSpeakerPrefixLen is how far into a message a colon can appear and
// still be read as an existing "Speaker:" prefix.
const maxSpeakerPrefixLen = 50

// FormatWithSpeaker prefixes a message with the speaker's name so the LLM
// always sees who is talking. Messages that already carry a speaker prefix
// are left alone; a colon later in the sentence does not count.
func FormatWithSpeaker(message, speaker string) string {
	if idx := strings.Index(message, ":"); idx > 0 && idx <= maxSpeakerPrefixLen {
		return message
	}
	return speaker + ": " + message
}
