package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; everything else
// requires a restart and is summarised by RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// PipelinesChanged is true when timeout, poll, or breaker tuning changed.
	// New sessions pick these up; running sessions keep their old values.
	PipelinesChanged bool

	// AudioChanged is true when window geometry or the default sample rate
	// changed. Applies to new sessions only.
	AudioChanged bool

	// RestartRequired is true when listen address, TLS, provider selection,
	// or the archive path changed. Those are fixed at startup.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Pipelines != new.Pipelines {
		d.PipelinesChanged = true
	}
	if old.Audio != new.Audio {
		d.AudioChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = true
	}
	if !tlsEqual(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = true
	}
	if !entryEqual(old.Providers.Transcribe, new.Providers.Transcribe) ||
		!entryEqual(old.Providers.Tone, new.Providers.Tone) ||
		!entryEqual(old.Providers.Feedback, new.Providers.Feedback) {
		d.RestartRequired = true
	}
	if old.Archive.Path != new.Archive.Path {
		d.RestartRequired = true
	}

	return d
}

// tlsEqual compares two optional TLS blocks.
func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// entryEqual compares provider entries. Options values are provider-specific
// scalars; any change there counts as a provider change.
func entryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.ClientID != b.ClientID ||
		a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		if bv, ok := b.Options[k]; !ok || bv != v {
			return false
		}
	}
	if len(a.Fallbacks) != len(b.Fallbacks) {
		return false
	}
	for i := range a.Fallbacks {
		if !entryEqual(a.Fallbacks[i], b.Fallbacks[i]) {
			return false
		}
	}
	return true
}
