package subtitle

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/scenecoach/pkg/types"
)

// assumedSpeakers is used when no speaker label was detected at all; an
// exchange is assumed to involve two parties.
const assumedSpeakers = 2

// Weights of the difficulty sub-metrics. The weighted sum is divided by
// difficultyNormaliser before rounding.
const (
	speechRateWeight     = 4.0
	vocabularyWeight     = 3.0
	speakerWeight        = 0.5
	lineLengthWeight     = 0.6
	difficultyNormaliser = 5.0
)

// DifficultyReport holds the sub-metrics behind a difficulty level.
type DifficultyReport struct {
	// SpeechRate is words per second of caption time.
	SpeechRate float64

	// VocabularyComplexity is the average word length mapped to [0, 1].
	VocabularyComplexity float64

	// Speakers is the number of distinct non-empty labels, or 2 if none.
	Speakers int

	// AverageLineLength is the mean word count per line.
	AverageLineLength float64

	// Level is the combined difficulty in [1, 5].
	Level int
}

// EstimateDifficulty scores lines on a 1–5 scale. An empty slice scores 1.
func EstimateDifficulty(lines []types.DialogueLine) int {
	return AnalyseDifficulty(lines).Level
}

// AnalyseDifficulty computes the full [DifficultyReport] for lines.
func AnalyseDifficulty(lines []types.DialogueLine) DifficultyReport {
	if len(lines) == 0 {
		return DifficultyReport{Speakers: assumedSpeakers, Level: types.MinDifficulty}
	}

	var (
		totalWords    int
		totalRunes    int
		totalDuration float64
	)
	speakers := make(map[string]struct{})
	for _, l := range lines {
		words := strings.Fields(l.Text)
		totalWords += len(words)
		for _, w := range words {
			totalRunes += utf8.RuneCountInString(w)
		}
		totalDuration += l.Duration()
		if l.Character != "" {
			speakers[l.Character] = struct{}{}
		}
	}

	r := DifficultyReport{
		Speakers:          len(speakers),
		AverageLineLength: float64(totalWords) / float64(len(lines)),
	}
	if r.Speakers == 0 {
		r.Speakers = assumedSpeakers
	}
	if totalDuration > 0 {
		r.SpeechRate = float64(totalWords) / totalDuration
	}
	if totalWords > 0 {
		avgLen := float64(totalRunes) / float64(totalWords)
		r.VocabularyComplexity = clamp((avgLen-2)/8, 0, 1)
	}

	score := (r.SpeechRate*speechRateWeight +
		r.VocabularyComplexity*vocabularyWeight +
		float64(r.Speakers)*speakerWeight +
		r.AverageLineLength*lineLengthWeight) / difficultyNormaliser

	r.Level = int(clamp(math.RoundToEven(score), types.MinDifficulty, types.MaxDifficulty))
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
