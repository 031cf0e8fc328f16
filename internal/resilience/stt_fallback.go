package resilience

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/pkg/provider/stt"
	"github.com/MrWong99/scenecoach/pkg/types"
)

// STTFallback implements [stt.Provider] with automatic failover across multiple
// STT backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// States reports the breaker state of every backend.
func (f *STTFallback) States() []EntryState {
	return f.group.States()
}

// Transcribe sends req to the first healthy backend, moving on to the next
// one when a backend fails.
func (f *STTFallback) Transcribe(ctx context.Context, req stt.Request) (*types.Transcription, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, p stt.Provider) (*types.Transcription, error) {
		return p.Transcribe(ctx, req)
	})
}

// ObserveOutcomes returns a [FallbackConfig.OnOutcome] hook that records
// every attempt on m. Breaker rejections are counted with status
// "circuit_open" and no latency sample.
func ObserveOutcomes(m *observe.Metrics) func(context.Context, Outcome) {
	return func(ctx context.Context, o Outcome) {
		switch {
		case o.Err == nil:
			m.RecordProviderRequest(ctx, o.Name, "ok", o.Elapsed)
		case errors.Is(o.Err, ErrCircuitOpen):
			m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
				attribute.String("provider", o.Name),
				attribute.String("status", "circuit_open"),
			))
		default:
			m.RecordProviderRequest(ctx, o.Name, "error", o.Elapsed)
			m.RecordProviderError(ctx, o.Name)
		}
	}
}
