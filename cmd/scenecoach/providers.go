package main

import (
	"fmt"
	"log/slog"

	"github.com/MrWong99/scenecoach/internal/app"
	"github.com/MrWong99/scenecoach/internal/config"
	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/internal/resilience"
	"github.com/MrWong99/scenecoach/pkg/provider/stt"
	"github.com/MrWong99/scenecoach/pkg/provider/stt/openai"
	"github.com/MrWong99/scenecoach/pkg/provider/stt/whisper"
)

// registerBuiltinProviders wires the built-in STT factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	slog.Debug("registered providers", "stt", reg.STTNames())
}

// buildSTT instantiates the configured STT backends behind a failover group.
// It returns [app.ErrNoProvider] when no backend is configured.
func buildSTT(cfg *config.Config, reg *config.Registry, m *observe.Metrics) (*resilience.STTFallback, error) {
	entries := cfg.Providers.Entries()
	if len(entries) == 0 {
		return nil, app.ErrNoProvider
	}

	names := entryNames(entries)
	var fb *resilience.STTFallback
	for i, entry := range entries {
		p, err := reg.CreateSTT(entry)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", names[i], err)
		}
		slog.Info("provider created", "kind", "stt", "name", names[i], "model", entry.Model)
		if fb == nil {
			fb = resilience.NewSTTFallback(p, names[i], resilience.FallbackConfig{
				OnOutcome: resilience.ObserveOutcomes(m),
			})
			continue
		}
		fb.AddFallback(names[i], p)
	}
	return fb, nil
}

// entryNames labels entries by provider name, suffixing repeats with their
// position so breaker states and metrics stay distinguishable.
func entryNames(entries []config.ProviderEntry) []string {
	out := make([]string, len(entries))
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		seen[e.Name]++
		out[i] = e.Name
		if seen[e.Name] > 1 {
			out[i] = fmt.Sprintf("%s#%d", e.Name, seen[e.Name])
		}
	}
	return out
}
