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

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"transcribe": {"openai", "whisper"},
	"tone":       {"behavioral"},
	"feedback":   {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

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

// LoadFromReader decodes a YAML config from r, applies defaults, and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Audio window geometry
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.PrimaryWindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.primary_window_seconds %.2f must be positive", cfg.Audio.PrimaryWindowSeconds))
	}
	if cfg.Audio.SecondaryWindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.secondary_window_seconds %.2f must be positive", cfg.Audio.SecondaryWindowSeconds))
	}
	if cfg.Audio.SecondaryWindowSeconds > cfg.Audio.PrimaryWindowSeconds {
		errs = append(errs, fmt.Errorf("audio.secondary_window_seconds %.2f must not exceed audio.primary_window_seconds %.2f",
			cfg.Audio.SecondaryWindowSeconds, cfg.Audio.PrimaryWindowSeconds))
	}
	if cfg.Audio.OverlapSeconds < 0 {
		errs = append(errs, fmt.Errorf("audio.overlap_seconds %.2f must not be negative", cfg.Audio.OverlapSeconds))
	}
	if cfg.Audio.OverlapSeconds >= cfg.Audio.PrimaryWindowSeconds {
		errs = append(errs, fmt.Errorf("audio.overlap_seconds %.2f must be smaller than audio.primary_window_seconds %.2f",
			cfg.Audio.OverlapSeconds, cfg.Audio.PrimaryWindowSeconds))
	}

	// Pipelines
	if cfg.Pipelines.RequestTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("pipelines.request_timeout_seconds %.2f must be positive", cfg.Pipelines.RequestTimeoutSeconds))
	}
	if cfg.Pipelines.TonePollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("pipelines.tone_poll_interval_ms %d must be positive", cfg.Pipelines.TonePollIntervalMs))
	}
	if cfg.Pipelines.TonePollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("pipelines.tone_poll_attempts %d must be positive", cfg.Pipelines.TonePollAttempts))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("transcribe", cfg.Providers.Transcribe.Name)
	validateProviderName("tone", cfg.Providers.Tone.Name)
	validateProviderName("feedback", cfg.Providers.Feedback.Name)

	// Provider availability warnings. Sessions run with whatever pipelines
	// are configured; missing ones simply never produce their events.
	if cfg.Providers.Transcribe.Name == "" {
		slog.Warn("no transcribe provider configured; sessions will not produce transcripts or feedback")
	}
	if cfg.Providers.Tone.Name == "" {
		slog.Warn("no tone provider configured; voice analysis will not be available")
	}
	if cfg.Providers.Feedback.Name == "" {
		slog.Warn("no feedback provider configured; coaching feedback will not be available")
	}
	if cfg.Archive.Path == "" {
		slog.Warn("archive.path is empty; finished sessions will not be persisted")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
