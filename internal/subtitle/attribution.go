package subtitle

import (
	"regexp"
	"strings"
)

// speakerPatterns are tried in order against a trimmed caption line. The
// first capture group is the speaker label, the second the spoken text.
var speakerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Z][A-Z\s]+):\s*(.*)`), // JOHN: Hello there
	regexp.MustCompile(`^([A-Z][a-z]+):\s*(.*)`),   // John: Hello there
	regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)`),     // [John] Hello there
	regexp.MustCompile(`^\(([^\)]+)\)\s*(.*)`),     // (John) Hello there
}

var htmlTag = regexp.MustCompile(`<.*?>`)

// punctuationStripper removes every '.' and '-'. Dash-prefixed speaker turns
// lose their dash as a side effect.
var punctuationStripper = strings.NewReplacer(".", "", "-", "")

// Attribution is one physical caption line resolved to a speaker.
type Attribution struct {
	Character string
	Dialogue  string
}

// CleanText strips HTML-like tags and then removes all dots and hyphens.
func CleanText(text string) string {
	return punctuationStripper.Replace(htmlTag.ReplaceAllString(text, ""))
}

// IdentifyCharacter detects a speaker label in a single caption line.
// When no label is found, character is empty and dialogue is the cleaned,
// trimmed line.
func IdentifyCharacter(line string) (character, dialogue string) {
	line = strings.TrimSpace(line)
	for _, p := range speakerPatterns {
		m := p.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return strings.TrimSpace(m[1]), CleanText(strings.TrimSpace(m[2]))
	}
	return "", CleanText(line)
}

// AttributeBlock resolves every physical line of a caption block's text body.
//
// A line naming a speaker and carrying text sets the speaker for the block.
// A line without a label inherits the speaker of the previous line in the
// same block. A labelled line with no text resets the speaker to unknown.
// Entries with empty dialogue are kept so callers can see every line; the
// extractor discards them.
func AttributeBlock(text string) []Attribution {
	lines := strings.Split(text, "\n")
	out := make([]Attribution, 0, len(lines))

	lastKnown, seen := "", false
	for _, line := range lines {
		character, dialogue := IdentifyCharacter(line)
		switch {
		case character != "" && dialogue != "":
		case character == "" && seen:
			character = lastKnown
		default:
			character = ""
		}
		out = append(out, Attribution{Character: character, Dialogue: dialogue})
		lastKnown, seen = character, true
	}
	return out
}
