// Package types defines the shared types used across all SceneCoach packages.
//
// These types form the lingua franca between the subtitle pipeline, the
// practice scorer, the STT providers, and the HTTP layer. They are
// intentionally minimal. Each package defines its own working types, but
// data structures that cross package boundaries live here to avoid circular
// imports.
package types

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors reported by [DialogueLine.Validate] and [Scene.Validate].
var (
	ErrNegativeStart    = errors.New("types: start time cannot be negative")
	ErrEndBeforeStart   = errors.New("types: end time must not precede start time")
	ErrEmptyScene       = errors.New("types: scene must have at least one line")
	ErrDifficultyRange  = errors.New("types: difficulty level must be between 1 and 5")
	ErrDurationMismatch = errors.New("types: duration does not match the line timings")
)

// Difficulty bounds shared by the estimator and the scene validator.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// durationTolerance is the slack (in seconds) allowed between a scene's
// declared duration and the span of its lines.
const durationTolerance = 1.0

// DialogueLine is a single speaker-attributed utterance extracted from a
// subtitle file. Times are in seconds relative to the start of the media.
type DialogueLine struct {
	// Character is the speaker label. Empty means the speaker is unknown.
	Character string `json:"character"`

	// Text is the cleaned caption text.
	Text string `json:"text"`

	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns EndTime − StartTime.
func (l DialogueLine) Duration() float64 {
	return l.EndTime - l.StartTime
}

// Validate checks the timing invariants of the line.
func (l DialogueLine) Validate() error {
	if l.StartTime < 0 {
		return ErrNegativeStart
	}
	if l.EndTime < l.StartTime {
		return ErrEndBeforeStart
	}
	return nil
}

// Scene is a bounded group of consecutive dialogue lines treated as one
// practice exercise. It is the unit persisted by the (external) dialogue
// store.
type Scene struct {
	Lines           []DialogueLine `json:"lines"`
	DurationSeconds float64        `json:"duration_seconds"`
	DifficultyLevel int            `json:"difficulty_level"`

	// Characters is the sorted set of distinct non-empty speaker labels.
	Characters []string `json:"characters"`
}

// Validate checks that the scene is non-empty, carries a difficulty in
// [MinDifficulty, MaxDifficulty], and that DurationSeconds agrees with the
// line timings. Every line is validated as well.
func (s Scene) Validate() error {
	if len(s.Lines) == 0 {
		return ErrEmptyScene
	}
	if s.DifficultyLevel < MinDifficulty || s.DifficultyLevel > MaxDifficulty {
		return fmt.Errorf("%w: got %d", ErrDifficultyRange, s.DifficultyLevel)
	}
	span := s.Lines[len(s.Lines)-1].EndTime - s.Lines[0].StartTime
	if math.Abs(span-s.DurationSeconds) > durationTolerance {
		return fmt.Errorf("%w: declared %.3fs, lines span %.3fs", ErrDurationMismatch, s.DurationSeconds, span)
	}
	var errs []error
	for i, l := range s.Lines {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("lines[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// TranscriptWord holds per-word metadata reported by a speech-to-text
// collaborator. Times are in seconds relative to the start of the recording.
type TranscriptWord struct {
	Word      string  `json:"word"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`

	// Confidence is the recogniser's confidence for this word (0.0–1.0).
	Confidence float64 `json:"confidence"`
}

// Transcription is the result of transcribing one recorded practice attempt.
type Transcription struct {
	// Text is the full transcribed text.
	Text string `json:"transcribed_text"`

	// Confidence is the overall confidence (0.0–1.0). May be zero if the
	// provider does not report one.
	Confidence float64 `json:"confidence"`

	// Words contains per-word detail in spoken order. May be empty.
	Words []TranscriptWord `json:"words"`
}

// SuggestionType classifies a [Suggestion].
type SuggestionType string

const (
	SuggestionPronunciation SuggestionType = "pronunciation"
	SuggestionFluency       SuggestionType = "fluency"
	SuggestionSpecific      SuggestionType = "specific"
)

// Suggestion is a single piece of improvement feedback for the learner.
type Suggestion struct {
	Type    SuggestionType `json:"type"`
	Message string         `json:"message"`
}

// WordMatch describes how one transcribed word lines up against the expected
// word at the same position.
type WordMatch struct {
	Position    int     `json:"position"`
	Expected    string  `json:"expected"`
	Transcribed string  `json:"transcribed"`
	Exact       bool    `json:"exact"`
	Similarity  float64 `json:"similarity"`
	SoundsAlike bool    `json:"sounds_alike"`
}

// PracticeResult is the graded outcome of one practice attempt.
type PracticeResult struct {
	PronunciationScore float64          `json:"pronunciation_score"`
	FluencyScore       float64          `json:"fluency_score"`
	TranscribedText    string           `json:"transcribed_text"`
	WordTimings        []TranscriptWord `json:"word_timings"`
	Suggestions        []Suggestion     `json:"suggestions"`
	XPEarned           int              `json:"xp_earned"`

	// WordMatches is the positional comparison of transcribed and expected
	// words. Informational only; it does not influence the scores.
	WordMatches []WordMatch `json:"word_matches,omitempty"`
}
