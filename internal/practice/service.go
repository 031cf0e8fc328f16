package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/pkg/provider/stt"
	"github.com/MrWong99/scenecoach/pkg/types"
)

var (
	// ErrTranscription wraps any failure of the speech-to-text collaborator.
	// The scorer is not reached when it is returned.
	ErrTranscription = errors.New("practice: transcription failed")

	// ErrEmptyAudio is returned for attempts without audio. The provider is
	// not called.
	ErrEmptyAudio = errors.New("practice: audio must not be empty")

	// ErrInvalidAttempt is returned when the scene or audio format cannot
	// be graded.
	ErrInvalidAttempt = errors.New("practice: invalid attempt")
)

// Attempt is one recorded try at a scene.
type Attempt struct {
	Scene types.Scene

	// Audio is the encoded recording; Format names its encoding
	// (see [stt.NormaliseFormat]).
	Audio  []byte
	Format string

	// Language optionally overrides the service's default language hint.
	Language string
}

// Service transcribes practice attempts and grades them.
type Service struct {
	provider stt.Provider
	scorer   Scorer
	language string
	metrics  *observe.Metrics
}

// ServiceOption is a functional option for configuring a [Service].
type ServiceOption func(*Service)

// WithScorer sets the scorer. Default: a [Scorer] with default thresholds.
func WithScorer(s Scorer) ServiceOption {
	return func(svc *Service) {
		svc.scorer = s
	}
}

// WithLanguage sets the default language hint forwarded to the provider.
func WithLanguage(lang string) ServiceOption {
	return func(svc *Service) {
		svc.language = lang
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) ServiceOption {
	return func(svc *Service) {
		svc.metrics = m
	}
}

// NewService returns a [Service] that transcribes through provider.
func NewService(provider stt.Provider, opts ...ServiceOption) *Service {
	svc := &Service{provider: provider}
	for _, o := range opts {
		o(svc)
	}
	if svc.metrics == nil {
		svc.metrics = observe.DefaultMetrics()
	}
	return svc
}

// Scorer returns the scorer used by the service.
func (s *Service) Scorer() Scorer {
	return s.scorer
}

// ExpectedText is the concatenation of the scene's line texts joined by single
// spaces.
func ExpectedText(scene types.Scene) string {
	texts := make([]string, len(scene.Lines))
	for i, l := range scene.Lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, " ")
}

// Practice transcribes the attempt and grades it against the scene.
//
// Errors are [ErrEmptyAudio] and [ErrInvalidAttempt] for unusable input and
// [ErrTranscription] when the provider fails; all are errors.Is-checkable.
func (s *Service) Practice(ctx context.Context, a Attempt) (*types.PracticeResult, error) {
	ctx, span := observe.StartSpan(ctx, "practice.Practice")
	defer span.End()

	req, err := s.request(a)
	if err != nil {
		s.metrics.RecordPracticeFailed(ctx, "rejected")
		observe.FailSpan(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("practice.format", req.Format),
		attribute.Int("practice.audio_bytes", len(req.Audio)),
		attribute.Int("practice.difficulty", a.Scene.DifficultyLevel),
	)

	tr, err := s.provider.Transcribe(ctx, req)
	if err == nil && tr == nil {
		err = errors.New("provider returned no transcription")
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTranscription, err)
		s.metrics.RecordPracticeFailed(ctx, "transcription_failed")
		observe.FailSpan(span, err)
		observe.Logger(ctx).Warn("practice attempt not scored", "err", err)
		return nil, err
	}

	return s.grade(ctx, a.Scene, *tr), nil
}

// ScoreTranscription grades an existing transcription against scene without
// calling the provider.
func (s *Service) ScoreTranscription(ctx context.Context, scene types.Scene, tr types.Transcription) (*types.PracticeResult, error) {
	if err := validScene(scene); err != nil {
		s.metrics.RecordPracticeFailed(ctx, "rejected")
		return nil, err
	}
	return s.grade(ctx, scene, tr), nil
}

func (s *Service) grade(ctx context.Context, scene types.Scene, tr types.Transcription) *types.PracticeResult {
	res := s.scorer.Score(tr, ExpectedText(scene), scene.DifficultyLevel)
	s.metrics.RecordPracticeScored(ctx, res.PronunciationScore, res.FluencyScore, res.XPEarned)
	observe.Logger(ctx).Debug("practice attempt scored",
		"pronunciation", res.PronunciationScore,
		"fluency", res.FluencyScore,
		"suggestions", len(res.Suggestions),
		"xp", res.XPEarned,
	)
	return &res
}

func (s *Service) request(a Attempt) (stt.Request, error) {
	if len(a.Audio) == 0 {
		return stt.Request{}, ErrEmptyAudio
	}
	if err := validScene(a.Scene); err != nil {
		return stt.Request{}, err
	}
	format, err := stt.NormaliseFormat(a.Format)
	if err != nil {
		return stt.Request{}, fmt.Errorf("%w: %w", ErrInvalidAttempt, err)
	}
	lang := a.Language
	if lang == "" {
		lang = s.language
	}
	return stt.Request{Audio: a.Audio, Format: format, Language: lang}, nil
}

func validScene(scene types.Scene) error {
	if len(scene.Lines) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidAttempt, types.ErrEmptyScene)
	}
	if scene.DifficultyLevel < types.MinDifficulty || scene.DifficultyLevel > types.MaxDifficulty {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidAttempt, types.ErrDifficultyRange, scene.DifficultyLevel)
	}
	return nil
}
