package subtitle

import (
	"regexp"
	"strings"

	"github.com/MrWong99/scenecoach/pkg/types"
)

const (
	// minBlockLines is the index line, the timing line, and at least one
	// text line.
	minBlockLines = 3

	// DefaultMergeGap is the largest gap (seconds, exclusive) between two
	// same-speaker lines that still merges them into one utterance.
	DefaultMergeGap = 2.0
)

var blockSeparator = regexp.MustCompile(`\n\n+`)

// extractStats counts what the extractor saw. It feeds debug logging in the
// pipeline and never affects the produced lines.
type extractStats struct {
	Blocks           int
	ShortBlocks      int
	MalformedTimings int
}

// ExtractLines parses raw SubRip-style content into merged dialogue lines
// using [DefaultMergeGap]. Empty or block-free content yields an empty slice.
func ExtractLines(content string) []types.DialogueLine {
	lines, _ := extract(content, DefaultMergeGap)
	return lines
}

func extract(content string, mergeGap float64) ([]types.DialogueLine, extractStats) {
	var stats extractStats

	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return []types.DialogueLine{}, stats
	}

	var lines []types.DialogueLine
	for _, block := range blockSeparator.Split(content, -1) {
		stats.Blocks++
		rows := strings.Split(block, "\n")
		if len(rows) < minBlockLines {
			stats.ShortBlocks++
			continue
		}

		start, end, err := ParseTimestampStrict(rows[1])
		if err != nil {
			stats.MalformedTimings++
		}

		for _, a := range AttributeBlock(strings.Join(rows[2:], "\n")) {
			if a.Dialogue == "" {
				continue
			}
			lines = append(lines, types.DialogueLine{
				Character: a.Character,
				Text:      a.Dialogue,
				StartTime: start,
				EndTime:   end,
			})
		}
	}
	return MergeLines(lines, mergeGap), stats
}

// MergeLines joins consecutive lines spoken by the same known character when
// the gap between them is below mergeGap seconds. Merged text is joined with a
// single space and the end time extends to the later line. A zero mergeGap
// merges only overlapping fragments.
//
// The input slice is not modified. Applying MergeLines to its own output
// performs no further merges.
func MergeLines(lines []types.DialogueLine, mergeGap float64) []types.DialogueLine {
	merged := make([]types.DialogueLine, 0, len(lines))
	if len(lines) == 0 {
		return merged
	}

	current := lines[0]
	for _, next := range lines[1:] {
		if current.Character != "" && current.Character == next.Character &&
			next.StartTime-current.EndTime < mergeGap {
			current.Text += " " + next.Text
			current.EndTime = next.EndTime
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
