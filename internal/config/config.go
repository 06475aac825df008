// Package config provides the configuration schema, loader, and provider
// registry for the Resonate speech-coaching server.
package config

import "time"

// LogLevel controls log verbosity for the Resonate server.
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

// Config is the root configuration structure for Resonate.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	Pipelines PipelinesConfig `yaml:"pipelines"`
	Providers ProvidersConfig `yaml:"providers"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

// ServerConfig holds network and logging settings for the Resonate server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// AudioConfig tunes the ingest format and the window trigger engine.
// Durations are expressed in seconds so fractional windows (e.g. a 0.1s
// overlap) read naturally in YAML.
type AudioConfig struct {
	// SampleRate is the default sample rate in Hz for incoming audio when a
	// session does not announce its own. Default: 16000.
	SampleRate int `yaml:"sample_rate"`

	// PrimaryWindowSeconds is the duration of the consuming analysis window.
	// Default: 10.
	PrimaryWindowSeconds float64 `yaml:"primary_window_seconds"`

	// SecondaryWindowSeconds is the duration of the non-consuming early-look
	// window. Default: 6. Must not exceed PrimaryWindowSeconds.
	SecondaryWindowSeconds float64 `yaml:"secondary_window_seconds"`

	// OverlapSeconds is the tail of each primary window retained for the
	// next one. Default: 0.1. Must be smaller than PrimaryWindowSeconds.
	OverlapSeconds float64 `yaml:"overlap_seconds"`
}

// PipelinesConfig tunes the per-window analysis pipelines.
type PipelinesConfig struct {
	// RequestTimeoutSeconds bounds each individual collaborator call.
	// Default: 30.
	RequestTimeoutSeconds float64 `yaml:"request_timeout_seconds"`

	// TonePollIntervalMs is the delay between tone job status polls.
	// Default: 500.
	TonePollIntervalMs int `yaml:"tone_poll_interval_ms"`

	// TonePollAttempts caps how many times a tone job is polled before the
	// task gives up. Default: 20.
	TonePollAttempts int `yaml:"tone_poll_attempts"`

	// ToneBreaker tunes the circuit breaker guarding tone submissions.
	ToneBreaker BreakerConfig `yaml:"tone_breaker"`
}

// BreakerConfig holds circuit breaker tuning knobs.
type BreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the breaker.
	// Default: 5.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeoutSeconds is how long the breaker stays open before probing.
	// Default: 30.
	ResetTimeoutSeconds float64 `yaml:"reset_timeout_seconds"`
}

// ProvidersConfig declares which collaborator implementation to use for each
// pipeline. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	Transcribe ProviderEntry `yaml:"transcribe"`
	Tone       ProviderEntry `yaml:"tone"`
	Feedback   ProviderEntry `yaml:"feedback"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "openai", "whisper", "behavioral").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// ClientID identifies the account on providers that pair a key with a
	// client identifier (e.g., Behavioral Signals). Ignored elsewhere.
	ClientID string `yaml:"client_id"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "whisper-1",
	// "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists additional providers of the same kind, tried in order
	// when the primary fails or its circuit breaker is open. Supported for the
	// transcribe and feedback kinds; nested fallbacks are ignored.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// ArchiveConfig controls where finished sessions are persisted.
type ArchiveConfig struct {
	// Path is the JSON Lines file sessions are appended to. Empty disables
	// archiving.
	Path string `yaml:"path"`
}

// RequestTimeout returns the per-call collaborator timeout as a duration.
func (p PipelinesConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds * float64(time.Second))
}

// TonePollInterval returns the tone poll delay as a duration.
func (p PipelinesConfig) TonePollInterval() time.Duration {
	return time.Duration(p.TonePollIntervalMs) * time.Millisecond
}

// ResetTimeout returns the breaker reset delay as a duration.
func (b BreakerConfig) ResetTimeout() time.Duration {
	return time.Duration(b.ResetTimeoutSeconds * float64(time.Second))
}

// PrimaryWindow returns the primary window duration.
func (a AudioConfig) PrimaryWindow() time.Duration {
	return time.Duration(a.PrimaryWindowSeconds * float64(time.Second))
}

// SecondaryWindow returns the secondary window duration.
func (a AudioConfig) SecondaryWindow() time.Duration {
	return time.Duration(a.SecondaryWindowSeconds * float64(time.Second))
}

// Overlap returns the primary window overlap duration.
func (a AudioConfig) Overlap() time.Duration {
	return time.Duration(a.OverlapSeconds * float64(time.Second))
}

// ApplyDefaults fills zero-valued fields with production defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.PrimaryWindowSeconds == 0 {
		c.Audio.PrimaryWindowSeconds = 10
	}
	if c.Audio.SecondaryWindowSeconds == 0 {
		c.Audio.SecondaryWindowSeconds = 6
	}
	if c.Audio.OverlapSeconds == 0 {
		c.Audio.OverlapSeconds = 0.1
	}
	if c.Pipelines.RequestTimeoutSeconds == 0 {
		c.Pipelines.RequestTimeoutSeconds = 30
	}
	if c.Pipelines.TonePollIntervalMs == 0 {
		c.Pipelines.TonePollIntervalMs = 500
	}
	if c.Pipelines.TonePollAttempts == 0 {
		c.Pipelines.TonePollAttempts = 20
	}
	if c.Pipelines.ToneBreaker.MaxFailures == 0 {
		c.Pipelines.ToneBreaker.MaxFailures = 5
	}
	if c.Pipelines.ToneBreaker.ResetTimeoutSeconds == 0 {
		c.Pipelines.ToneBreaker.ResetTimeoutSeconds = 30
	}
}
