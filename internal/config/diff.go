package config

import "slices"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SubtitlesChanged and ScoringChanged are applied to new requests
	// without a restart.
	SubtitlesChanged bool
	ScoringChanged   bool

	// ProvidersChanged and ListenAddrChanged only take effect after a restart.
	ProvidersChanged  bool
	ListenAddrChanged bool
}

// HotReloadable reports whether any change can be applied in place.
func (d ConfigDiff) HotReloadable() bool {
	return d.LogLevelChanged || d.SubtitlesChanged || d.ScoringChanged
}

// RequiresRestart reports whether any change only takes effect after a
// restart.
func (d ConfigDiff) RequiresRestart() bool {
	return d.ProvidersChanged || d.ListenAddrChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{
		SubtitlesChanged:  old.Subtitles != new.Subtitles,
		ScoringChanged:    old.Scoring != new.Scoring,
		ListenAddrChanged: old.Server.ListenAddr != new.Server.ListenAddr,
		ProvidersChanged:  !slices.Equal(old.Providers.Entries(), new.Providers.Entries()),
	}
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	return d
}
