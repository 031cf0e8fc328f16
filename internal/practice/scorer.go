// Package practice grades a learner's spoken attempt at a scene.
//
// [Scorer] is the pure grading engine: it turns a [types.Transcription] and
// the expected text into pronunciation and fluency scores, feedback
// suggestions and an XP reward. [Service] wraps it with transcription via an
// [stt.Provider], metrics and tracing.
package practice

import (
	"fmt"
	"math"
	"strings"

	"github.com/MrWong99/scenecoach/pkg/types"
)

// Scoring defaults.
const (
	DefaultPronunciationThreshold = 0.8
	DefaultFluencyThreshold       = 0.7
	DefaultPauseThreshold         = 0.1
	DefaultMaxSuggestions         = 5
)

// Feedback messages for the generic suggestions.
const (
	PronunciationMessage = "Try to speak more clearly and enunciate each word"
	FluencyMessage       = "Try to maintain a more consistent speaking pace with fewer pauses"
)

// ScoringConfig tunes a [Scorer]. Fields are taken literally: a zero
// threshold never triggers its suggestion and a zero MaxSuggestions disables
// feedback. Start from [DefaultScoringConfig] to override single fields.
type ScoringConfig struct {
	// PronunciationThreshold is the score below which the pronunciation
	// suggestion is emitted.
	PronunciationThreshold float64

	// FluencyThreshold is the score below which the fluency suggestion is
	// emitted.
	FluencyThreshold float64

	// PauseThreshold is the shortest silence (seconds) between two words
	// that counts as a pause.
	PauseThreshold float64

	// MaxSuggestions caps the suggestion list, generic suggestions included.
	MaxSuggestions int
}

// DefaultScoringConfig returns the default scoring configuration.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PronunciationThreshold: DefaultPronunciationThreshold,
		FluencyThreshold:       DefaultFluencyThreshold,
		PauseThreshold:         DefaultPauseThreshold,
		MaxSuggestions:         DefaultMaxSuggestions,
	}
}

// Scorer grades transcriptions. The zero value uses [DefaultScoringConfig].
// A Scorer holds no mutable state and is safe for concurrent use.
type Scorer struct {
	cfg ScoringConfig
	set bool
}

// NewScorer returns a [Scorer] using cfg as given.
func NewScorer(cfg ScoringConfig) Scorer {
	return Scorer{cfg: cfg, set: true}
}

// Config returns the effective configuration.
func (s Scorer) Config() ScoringConfig {
	if !s.set {
		return DefaultScoringConfig()
	}
	return s.cfg
}

// Score grades tr against expected for a scene of the given difficulty. It
// never fails; an empty transcription scores zero on both axes.
func (s Scorer) Score(tr types.Transcription, expected string, difficulty int) types.PracticeResult {
	cfg := s.Config()

	pronunciation := PronunciationScore(tr.Words)
	fluency := FluencyScore(tr.Words, cfg.PauseThreshold)

	words := tr.Words
	if words == nil {
		words = []types.TranscriptWord{}
	}
	return types.PracticeResult{
		PronunciationScore: pronunciation,
		FluencyScore:       fluency,
		TranscribedText:    tr.Text,
		WordTimings:        words,
		Suggestions:        s.suggestions(cfg, pronunciation, fluency, tr.Text, expected),
		XPEarned:           XP(difficulty, pronunciation, fluency),
		WordMatches:        CompareWords(tr.Text, expected),
	}
}

// PronunciationScore is the mean word confidence rounded to four decimals,
// or 0 when there are no words.
func PronunciationScore(words []types.TranscriptWord) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return round4(sum / float64(len(words)))
}

// FluencyScore measures how much of the attempt was spent speaking rather
// than pausing. Gaps between words longer than pauseThreshold count as
// pauses. The result is clamped to [0, 1] and rounded to four decimals; it is
// 0 when there are no words or no measurable time.
func FluencyScore(words []types.TranscriptWord, pauseThreshold float64) float64 {
	if len(words) == 0 {
		return 0
	}

	var speaking, pausing float64
	prevEnd := words[0].StartTime
	for _, w := range words {
		if pause := w.StartTime - prevEnd; pause > pauseThreshold {
			pausing += pause
		}
		speaking += w.EndTime - w.StartTime
		prevEnd = w.EndTime
	}

	total := speaking + pausing
	if total == 0 {
		return 0
	}
	return round4(math.Max(0, math.Min(1, 1-pausing/total)))
}

// XP is floor(difficulty * 100 * mean(pronunciation, fluency)), never
// negative.
func XP(difficulty int, pronunciation, fluency float64) int {
	xp := math.Floor(float64(difficulty) * 100 * (pronunciation + fluency) / 2)
	if xp < 0 || math.IsNaN(xp) {
		return 0
	}
	return int(xp)
}

func (s Scorer) suggestions(cfg ScoringConfig, pronunciation, fluency float64, transcribed, expected string) []types.Suggestion {
	out := []types.Suggestion{}
	add := func(t types.SuggestionType, msg string) bool {
		if len(out) >= cfg.MaxSuggestions {
			return false
		}
		out = append(out, types.Suggestion{Type: t, Message: msg})
		return true
	}

	if pronunciation < cfg.PronunciationThreshold {
		add(types.SuggestionPronunciation, PronunciationMessage)
	}
	if fluency < cfg.FluencyThreshold {
		add(types.SuggestionFluency, FluencyMessage)
	}

	said := strings.Fields(transcribed)
	for i, want := range strings.Fields(expected) {
		if i >= len(said) {
			break
		}
		if strings.EqualFold(said[i], want) {
			continue
		}
		if !add(types.SuggestionSpecific, fmt.Sprintf("Expected '%s', but you said '%s'.", want, said[i])) {
			break
		}
	}
	return out
}

func round4(v float64) float64 {
	return math.RoundToEven(v*1e4) / 1e4
}
