package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Written shorthand that speech synthesis engines mispronounce. Only
// dot-less tokens belong here: the trailing period of a sentence must
// survive expansion.
var abbreviations = []string{
	"o2", "co2", "h2o",
	"km", "kg", "kph",
	"hr", "hrs",
	"pct", "approx", "vs", "etc",
	"hq",
}

// abbreviationExpansions maps shorthand to its spoken form
var abbreviationExpansions = map[string]string{
	"o2":     "oxygen",
	"co2":    "carbon dioxide",
	"h2o":    "water",
	"km":     "kilometers",
	"kg":     "kilograms",
	"kph":    "kilometers per hour",
	"hr":     "hour",
	"hrs":    "hours",
	"pct":    "percent",
	"approx": "approximately",
	"vs":     "versus",
	"etc":    "et cetera",
	"hq":     "headquarters",
}

// symbolExpansions are applied everywhere, not just on word boundaries.
var symbolExpansions = [][2]string{
	{"%", " percent"},
	{"&", " and "},
}

var (
	markdownPattern   = regexp.MustCompile("[*_~`#]+")
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SpeechFilter rewrites written text into text a voice can read aloud.
type SpeechFilter struct {
	regexes map[string]*regexp.Regexp
}

// NewSpeechFilter creates a new speech filter
func NewSpeechFilter() *SpeechFilter {
	sf := &SpeechFilter{
		regexes: make(map[string]*regexp.Regexp),
	}

	// Pre-compile regex patterns for each abbreviation
	for _, word := range abbreviations {
		pattern := `\b` + regexp.QuoteMeta(word) + `\b`
		sf.regexes[word] = regexp.MustCompile(`(?i)` + pattern)
	}

	return sf
}

// NormalizeText converts markdown, symbols, and shorthand in the input text
// into their spoken forms. Safe on already-clean text.
func (sf *SpeechFilter) NormalizeText(text string) string {
	result := markdownPattern.ReplaceAllString(text, "")

	for _, pair := range symbolExpansions {
		result = strings.ReplaceAll(result, pair[0], pair[1])
	}

	// Expand each abbreviation, keeping the original casing
	for _, word := range abbreviations {
		if regex, exists := sf.regexes[word]; exists {
			if expansion, hasExpansion := abbreviationExpansions[word]; hasExpansion {
				result = regex.ReplaceAllStringFunc(result, func(match string) string {
					return preserveCase(match, expansion)
				})
			}
		}
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(result, " "))
}

// NeedsNormalization checks if the text contains anything NormalizeText
// would rewrite.
func (sf *SpeechFilter) NeedsNormalization(text string) bool {
	if strings.ContainsAny(text, "*_~`#%&") {
		return true
	}
	for _, word := range abbreviations {
		if regex, exists := sf.regexes[word]; exists {
			if regex.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	// All uppercase
	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}

	// All lowercase
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	// Title case (first letter uppercase, rest lowercase)
	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case - try to preserve the pattern character by character
	result := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	replacementRunes := []rune(replacement)

	for i, r := range replacementRunes {
		if i < len(originalRunes) {
			// Apply the case of the corresponding character in the original
			if unicode.IsUpper(originalRunes[i]) {
				result = append(result, unicode.ToUpper(r))
			} else {
				result = append(result, unicode.ToLower(r))
			}
		} else {
			// If replacement is longer, use lowercase for extra characters
			result = append(result, unicode.ToLower(r))
		}
	}

	return string(result)
}
