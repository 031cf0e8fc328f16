package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidSTTProviders lists the STT provider names known to the built-in
// registry. Used by [Validate] to warn about unrecognised provider names.
var ValidSTTProviders = []string{"whisper", "openai"}

// Server defaults, used by [Default] and [ApplyDefaults].
const (
	DefaultListenAddr = ":8080"
	DefaultLogLevel   = LogInfo
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default], applies defaults
// and validates the result. Keys present in the document win, including zero
// values. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills empty server fields and takes a missing OpenAI key from
// the OPENAI_API_KEY environment variable. Pipeline and scoring fields are
// left alone because zero is a valid setting for them; use [Default] as the
// starting point for a config built in code.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	fill := func(e *ProviderEntry) {
		if e.Name == "openai" && e.APIKey == "" {
			e.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	fill(&cfg.Providers.STT)
	for i := range cfg.Providers.STTFallbacks {
		fill(&cfg.Providers.STTFallbacks[i])
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	s := cfg.Subtitles
	if s.MaxGap < 0 {
		errs = append(errs, fmt.Errorf("subtitles.max_gap %.2f must not be negative", s.MaxGap))
	}
	if s.MinLines < 0 {
		errs = append(errs, fmt.Errorf("subtitles.min_lines %d must not be negative", s.MinLines))
	}
	if s.MaxDuration <= 0 {
		errs = append(errs, fmt.Errorf("subtitles.max_duration %.2f must be positive", s.MaxDuration))
	}
	if s.MergeGap < 0 {
		errs = append(errs, fmt.Errorf("subtitles.merge_gap %.2f must not be negative", s.MergeGap))
	}
	if s.BatchWorkers < 0 {
		errs = append(errs, fmt.Errorf("subtitles.batch_workers %d must not be negative", s.BatchWorkers))
	}

	sc := cfg.Scoring
	for _, th := range []struct {
		name string
		v    float64
	}{
		{"pronunciation_threshold", sc.PronunciationThreshold},
		{"fluency_threshold", sc.FluencyThreshold},
	} {
		if th.v < 0 || th.v > 1 {
			errs = append(errs, fmt.Errorf("scoring.%s %.2f is out of range [0, 1]", th.name, th.v))
		}
	}
	if sc.PauseThreshold < 0 {
		errs = append(errs, fmt.Errorf("scoring.pause_threshold %.2f must not be negative", sc.PauseThreshold))
	}
	if sc.MaxSuggestions < 0 {
		errs = append(errs, fmt.Errorf("scoring.max_suggestions %d must not be negative", sc.MaxSuggestions))
	}

	p := cfg.Providers
	if p.STT.Name == "" && len(p.STTFallbacks) > 0 {
		errs = append(errs, errors.New("providers.stt_fallbacks requires providers.stt to be configured"))
	}
	seen := make(map[ProviderEntry]string)
	check := func(field string, e ProviderEntry) {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", field))
			return
		}
		validateProviderName(field, e.Name)
		if prev, ok := seen[e]; ok {
			errs = append(errs, fmt.Errorf("%s duplicates %s", field, prev))
		}
		seen[e] = field
		if e.Name == "whisper" && e.BaseURL == "" {
			errs = append(errs, fmt.Errorf("%s.base_url is required for whisper", field))
		}
		if e.Name == "openai" && e.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s.api_key is required for openai", field))
		}
	}
	if p.STT.Name != "" {
		check("providers.stt", p.STT)
	}
	for i, e := range p.STTFallbacks {
		check(fmt.Sprintf("providers.stt_fallbacks[%d]", i), e)
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not one of
// [ValidSTTProviders].
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidSTTProviders, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"field", field,
		"name", name,
		"known", ValidSTTProviders,
	)
}
