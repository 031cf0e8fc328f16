// Package observe provides application-wide observability primitives for
// SceneCoach: OpenTelemetry metrics, distributed tracing, trace-aware
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to Prometheus so they can be scraped from /metrics. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all SceneCoach metrics.
const meterName = "github.com/MrWong99/scenecoach"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Subtitle pipeline ---

	// SubtitleDuration tracks how long one subtitle document takes to process.
	SubtitleDuration metric.Float64Histogram

	// SubtitleLines counts dialogue lines extracted after merging.
	SubtitleLines metric.Int64Counter

	// SubtitleScenes counts scenes emitted by the segmenter.
	SubtitleScenes metric.Int64Counter

	// --- Practice scoring ---

	// PracticeAttempts counts scored attempts. Use with attribute:
	//   attribute.String("status", "scored"|"transcription_failed"|"rejected")
	PracticeAttempts metric.Int64Counter

	// PronunciationScore records pronunciation scores in [0, 1].
	PronunciationScore metric.Float64Histogram

	// FluencyScore records fluency scores in [0, 1].
	FluencyScore metric.Float64Histogram

	// XPEarned records the XP granted per attempt.
	XPEarned metric.Int64Histogram

	// --- Providers ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// ProviderRequests counts provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider failures. Use with attribute:
	//   attribute.String("provider", ...)
	ProviderErrors metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) spanning
// in-process subtitle runs (milliseconds) up to hosted transcription calls.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30,
}

// scoreBuckets splits the unit interval used by both practice scores.
var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SubtitleDuration, err = m.Float64Histogram("scenecoach.subtitle.process.duration",
		metric.WithDescription("Time spent turning one subtitle document into scenes."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SubtitleLines, err = m.Int64Counter("scenecoach.subtitle.lines",
		metric.WithDescription("Dialogue lines extracted from subtitle documents."),
	); err != nil {
		return nil, err
	}
	if met.SubtitleScenes, err = m.Int64Counter("scenecoach.subtitle.scenes",
		metric.WithDescription("Scenes produced from subtitle documents."),
	); err != nil {
		return nil, err
	}

	if met.PracticeAttempts, err = m.Int64Counter("scenecoach.practice.attempts",
		metric.WithDescription("Practice attempts by outcome status."),
	); err != nil {
		return nil, err
	}
	if met.PronunciationScore, err = m.Float64Histogram("scenecoach.practice.pronunciation",
		metric.WithDescription("Pronunciation score of scored attempts."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FluencyScore, err = m.Float64Histogram("scenecoach.practice.fluency",
		metric.WithDescription("Fluency score of scored attempts."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.XPEarned, err = m.Int64Histogram("scenecoach.practice.xp",
		metric.WithDescription("XP granted per scored attempt."),
		metric.WithExplicitBucketBoundaries(50, 100, 150, 200, 250, 300, 400, 500),
	); err != nil {
		return nil, err
	}

	if met.STTDuration, err = m.Float64Histogram("scenecoach.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("scenecoach.provider.requests",
		metric.WithDescription("Total provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("scenecoach.provider.errors",
		metric.WithDescription("Total provider errors by provider."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("scenecoach.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSubtitleRun records one pipeline run.
func (m *Metrics) RecordSubtitleRun(ctx context.Context, lines, scenes int, elapsed time.Duration) {
	m.SubtitleDuration.Record(ctx, elapsed.Seconds())
	m.SubtitleLines.Add(ctx, int64(lines))
	m.SubtitleScenes.Add(ctx, int64(scenes))
}

// RecordPracticeScored records the scores of a successfully graded attempt.
func (m *Metrics) RecordPracticeScored(ctx context.Context, pronunciation, fluency float64, xp int) {
	m.PracticeAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "scored")))
	m.PronunciationScore.Record(ctx, pronunciation)
	m.FluencyScore.Record(ctx, fluency)
	m.XPEarned.Record(ctx, int64(xp))
}

// RecordPracticeFailed records an attempt that never reached the scorer.
func (m *Metrics) RecordPracticeFailed(ctx context.Context, status string) {
	m.PracticeAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordProviderRequest records one provider call and its latency.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string, elapsed time.Duration) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
	m.STTDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordProviderError records a provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
