package emotion

// Keyword tables for cue classification. Matching is lower-cased substring
// matching, so tables hold stems where a stem covers its inflections
// ("whisper" also matches "whispering" and "whispers").
//
// Table priority is physical > vocal > pacing > emotion and is part of the
// contract: many phrases match more than one table, and reordering changes
// classifications.

// physicalKeywords identify bodily actions and involuntary sounds.
var physicalKeywords = []string{
	"coughing", "cough", "gasping", "gasp", "choking", "wheezing", "wheeze",
	"sobbing", "sob", "crying", "weeping", "sniffling", "sniffle",
	"sighing", "sigh", "exhaling", "inhaling", "breathing", "panting",
	"laughing", "laugh", "chuckling", "chuckle", "giggling", "giggle",
	"groaning", "groan", "grunting", "wincing", "shivering", "shuddering",
	"flinching", "swallowing", "trembling hands", "clearing throat",
}

// physicalEmotionIndicators map a physical cue to an emotion by substring
// match, evaluated in order. First indicator hit wins; no hit means neutral.
var physicalEmotionIndicators = []struct {
	emotion    string
	indicators []string
}{
	{"distress", []string{"coughing", "cough", "gasping", "gasp", "choking", "wheezing", "wheeze", "panting", "groaning", "groan", "wincing", "shivering", "shuddering", "trembling"}},
	{"relief", []string{"sighing", "sigh", "exhaling"}},
	{"joy", []string{"laughing", "laugh", "chuckling", "chuckle", "giggling", "giggle"}},
	{"sadness", []string{"sobbing", "sob", "crying", "weeping", "sniffling", "sniffle"}},
	{"surprise", []string{"flinching", "startled", "jolting"}},
}

// vocalKeywords identify qualities of voice delivery.
var vocalKeywords = []string{
	"whisper", "hushed", "murmur", "mutter", "under the breath",
	"shout", "yell", "scream", "bellow", "snapping", "barking",
	"trembling", "shaky", "shaking voice", "quaver", "cracking", "breaking voice",
	"measured", "steady", "even tone", "flat", "monotone", "level",
	"hoarse", "strained", "tight", "rasping", "croaking",
	"soft", "gentle", "warm", "tender", "soothing",
	"quiet", "low voice", "cold", "icy", "clipped", "harsh",
}

// vocalEmotionSets map vocal quality to emotion. Sets are disjoint and
// evaluated in order; the first set containing a match wins.
var vocalEmotionSets = []struct {
	emotion  string
	keywords []string
}{
	{"distress", []string{"trembling", "shaky", "shaking voice", "quaver", "cracking", "breaking voice", "strained", "tight", "hoarse", "rasping", "croaking"}},
	{"calm", []string{"measured", "steady", "even tone", "flat", "monotone", "level"}},
	{"anger", []string{"shout", "yell", "scream", "bellow", "snapping", "barking", "clipped", "harsh", "cold", "icy"}},
	{"secretive", []string{"whisper", "hushed", "murmur", "mutter", "under the breath", "quiet", "low voice"}},
	{"gentle", []string{"soft", "gentle", "warm", "tender", "soothing"}},
}

// pacingKeywords identify delivery tempo. Pacing cues are always neutral.
var pacingKeywords = []string{
	"pause", "pausing", "long silence", "beat",
	"quick", "rapid", "rushed", "hurried", "fast",
	"slow", "deliberate", "drawn out", "trailing off",
	"hesitant", "hesitating", "halting", "faltering",
	"stammering", "stuttering",
}

// emotionKeywords identify explicitly named emotional states. Listed longest
// form first where one keyword contains another, so the recorded match is
// the fullest word present.
var emotionKeywords = []string{
	"panicking", "panicked", "panic",
	"terrified", "frightened", "fearful", "scared", "afraid",
	"anxious", "nervous", "worried",
	"relieved", "calm",
	"furious", "angry", "irritated", "annoyed", "frustrated",
	"mournful", "grieving", "sadly", "sad",
	"happily", "happy", "joyful", "excited",
	"hopeful", "desperate", "determined", "resigned", "defeated",
	"bitter", "suspicious", "confused", "curious",
	"shocked", "surprised", "amused",
	"exhausted", "weary", "tired",
	"urgently", "urgent", "pleading",
}

// emotionNormalization folds keyword inflections onto canonical emotion
// names. Unmapped keywords pass through unchanged.
var emotionNormalization = map[string]string{
	"panicking":  "panic",
	"panicked":   "panic",
	"terrified":  "fear",
	"frightened": "fear",
	"fearful":    "fear",
	"scared":     "fear",
	"afraid":     "fear",
	"anxious":    "anxiety",
	"nervous":    "anxiety",
	"worried":    "anxiety",
	"relieved":   "relief",
	"furious":    "anger",
	"angry":      "anger",
	"irritated":  "irritation",
	"annoyed":    "irritation",
	"frustrated": "frustration",
	"mournful":   "grief",
	"grieving":   "grief",
	"sadly":      "sadness",
	"sad":        "sadness",
	"happily":    "joy",
	"happy":      "joy",
	"joyful":     "joy",
	"excited":    "excitement",
	"shocked":    "shock",
	"surprised":  "surprise",
	"exhausted":  "exhaustion",
	"weary":      "exhaustion",
	"tired":      "exhaustion",
	"urgently":   "urgency",
	"urgent":     "urgency",
	"pleading":   "desperation",
	"desperate":  "desperation",
}

// intensityModifiers override the category's default intensity when found
// anywhere in a cue. The slice is ordered: when a cue matches several
// entries, every match is appended to Modifiers and the LAST matching entry
// sets the intensity. Keep new entries in ascending-intensity position so
// the stronger word wins ties.
var intensityModifiers = []struct {
	keyword string
	value   float64
}{
	{"barely", 0.2},
	{"slightly", 0.3},
	{"a little", 0.35},
	{"somewhat", 0.4},
	{"mildly", 0.4},
	{"quite", 0.6},
	{"noticeably", 0.65},
	{"very", 0.8},
	{"deeply", 0.8},
	{"heavily", 0.85},
	{"intensely", 0.85},
	{"extremely", 0.9},
	{"desperately", 0.9},
	{"violently", 0.95},
	{"uncontrollably", 0.95},
}
