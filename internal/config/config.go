// Package config provides the configuration schema, loader, and provider registry
// for the SceneCoach server and CLI.
package config

import (
	"log/slog"

	"github.com/MrWong99/scenecoach/internal/practice"
	"github.com/MrWong99/scenecoach/internal/subtitle"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to the matching [slog.Level]. Unknown values map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure for SceneCoach.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Subtitles SubtitleConfig  `yaml:"subtitles"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Providers ProvidersConfig `yaml:"providers"`
}

// Default returns the configuration used when no file, or an empty one, is
// given. [LoadFromReader] decodes on top of it.
func Default() *Config {
	scenes := subtitle.DefaultSceneOptions()
	scoring := practice.DefaultScoringConfig()
	return &Config{
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
			LogLevel:   DefaultLogLevel,
		},
		Subtitles: SubtitleConfig{
			MaxGap:       scenes.MaxGap,
			MinLines:     scenes.MinLines,
			MaxDuration:  scenes.MaxDuration,
			MergeGap:     subtitle.DefaultMergeGap,
			BatchWorkers: subtitle.DefaultBatchWorkers,
		},
		Scoring: ScoringConfig{
			PronunciationThreshold: scoring.PronunciationThreshold,
			FluencyThreshold:       scoring.FluencyThreshold,
			PauseThreshold:         scoring.PauseThreshold,
			MaxSuggestions:         scoring.MaxSuggestions,
		},
	}
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// SubtitleConfig tunes the subtitle pipeline. Values are used as given, so a
// zero max_gap or merge_gap is meaningful. Keys left out of the YAML keep the
// values from [Default].
type SubtitleConfig struct {
	// MaxGap is the longest silence (seconds) allowed inside one scene.
	MaxGap float64 `yaml:"max_gap"`

	// MinLines is the smallest number of lines a scene may contain.
	MinLines int `yaml:"min_lines"`

	// MaxDuration caps the length (seconds) of one scene.
	MaxDuration float64 `yaml:"max_duration"`

	// MergeGap is the gap (seconds) below which consecutive lines of the
	// same speaker are merged.
	MergeGap float64 `yaml:"merge_gap"`

	// PerSceneDifficulty rates each scene from its own lines instead of
	// the whole document.
	PerSceneDifficulty bool `yaml:"per_scene_difficulty"`

	// BatchWorkers bounds the number of documents processed concurrently.
	// Zero selects the pipeline default.
	BatchWorkers int `yaml:"batch_workers"`
}

// ScoringConfig tunes the practice scorer. A zero threshold disables its
// suggestion and a zero max_suggestions disables feedback. Keys left out of
// the YAML keep the values from [Default].
type ScoringConfig struct {
	PronunciationThreshold float64 `yaml:"pronunciation_threshold"`
	FluencyThreshold       float64 `yaml:"fluency_threshold"`
	PauseThreshold         float64 `yaml:"pause_threshold"`
	MaxSuggestions         int     `yaml:"max_suggestions"`
}

// ProvidersConfig declares the speech-to-text backends. STT is the primary;
// STTFallbacks are tried in order when it fails.
type ProvidersConfig struct {
	STT          ProviderEntry   `yaml:"stt"`
	STTFallbacks []ProviderEntry `yaml:"stt_fallbacks"`
}

// Entries returns the primary entry followed by the fallbacks. The primary is
// omitted when it has no name.
func (p ProvidersConfig) Entries() []ProviderEntry {
	out := make([]ProviderEntry, 0, 1+len(p.STTFallbacks))
	if p.STT.Name != "" {
		out = append(out, p.STT)
	}
	return append(out, p.STTFallbacks...)
}

// ProviderEntry is the configuration block of one provider.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "whisper", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Required for
	// self-hosted servers such as whisper.cpp.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "whisper-1").
	Model string `yaml:"model"`

	// Language is the BCP-47 language hint sent with every request.
	Language string `yaml:"language"`
}
