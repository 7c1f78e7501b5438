// Package emotion extracts bracketed performance annotations from NPC
// dialogue text and classifies them into structured emotional signals for
// downstream voice-parameter selection.
package emotion

import (
	"regexp"
	"strings"
)

var (
	cuePattern        = regexp.MustCompile(`\[([^\[\]]*)\]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractCues strips every bracketed span from text and returns the cleaned
// text along with the raw cue strings in their original left-to-right order.
// Whitespace left behind by stripping is collapsed to single spaces and the
// result is trimmed.
//
// The function is idempotent: running it on its own cleaned output returns
// the same text and no cues.
func ExtractCues(text string) (string, []string) {
	var cues []string
	for _, match := range cuePattern.FindAllStringSubmatch(text, -1) {
		raw := strings.TrimSpace(match[1])
		if raw == "" {
			continue
		}
		cues = append(cues, raw)
	}

	cleaned := cuePattern.ReplaceAllString(text, "")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned), cues
}
