// Package stt defines the Provider interface for speech-to-text backends.
//
// A provider turns one recorded practice attempt into a [types.Transcription]:
// the full text plus per-word timing and confidence. The practice scorer only
// consumes that shape and never depends on a specific vendor.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"

	"github.com/MrWong99/scenecoach/pkg/types"
)

// ErrEmptyAudio is returned when a request carries no audio bytes.
var ErrEmptyAudio = errors.New("stt: audio must not be empty")

// Request is one batch transcription request.
type Request struct {
	// Audio is the encoded recording. For [FormatPCM] it is raw 16-bit
	// little-endian mono PCM at [PCMSampleRate]; providers that need a
	// container wrap it with [EncodeWAV].
	Audio []byte

	// Format names the audio encoding (see [NormaliseFormat]). Empty means
	// [FormatWAV].
	Format string

	// Language is an optional BCP-47 or ISO-639-1 hint (e.g. "en").
	// An empty string lets the provider auto-detect the language.
	Language string
}

// Validate reports whether the request can be sent to a provider.
func (r Request) Validate() error {
	if len(r.Audio) == 0 {
		return ErrEmptyAudio
	}
	_, err := NormaliseFormat(r.Format)
	return err
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe converts the recording in req into text with word-level
	// detail. Providers that cannot report per-word confidence should
	// approximate it from whatever segment-level signal they expose.
	Transcribe(ctx context.Context, req Request) (*types.Transcription, error)
}
