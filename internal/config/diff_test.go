package config_test

import (
	"testing"

	"github.com/ajaytemal-source/Resonate/internal/config"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Providers.Transcribe = config.ProviderEntry{Name: "openai", APIKey: "sk"}
	cfg.Providers.Tone = config.ProviderEntry{Name: "behavioral", APIKey: "bs", ClientID: "acct"}
	cfg.Providers.Feedback = config.ProviderEntry{Name: "openai", APIKey: "sk"}
	cfg.Archive.Path = "/data/sessions.jsonl"
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()

	d := config.Diff(old, new)
	if d.LogLevelChanged || d.PipelinesChanged || d.AudioChanged || d.RestartRequired {
		t.Errorf("diff of identical configs = %+v, want zero", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("LogLevelChanged = false, want true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.RestartRequired {
		t.Error("log level change should not require restart")
	}
}

func TestDiff_PipelineTuning(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Pipelines.TonePollAttempts = 40

	d := config.Diff(old, new)
	if !d.PipelinesChanged {
		t.Error("PipelinesChanged = false, want true")
	}
	if d.RestartRequired {
		t.Error("pipeline tuning should not require restart")
	}
}

func TestDiff_WindowGeometry(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Audio.SecondaryWindowSeconds = 4

	d := config.Diff(old, new)
	if !d.AudioChanged {
		t.Error("AudioChanged = false, want true")
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"listen addr", func(c *config.Config) { c.Server.ListenAddr = ":9090" }},
		{"tls added", func(c *config.Config) {
			c.Server.TLS = &config.TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}
		}},
		{"provider name", func(c *config.Config) { c.Providers.Transcribe.Name = "whisper" }},
		{"provider key", func(c *config.Config) { c.Providers.Tone.APIKey = "rotated" }},
		{"provider options", func(c *config.Config) {
			c.Providers.Feedback.Options = map[string]any{"provider": "anthropic"}
		}},
		{"fallback chain", func(c *config.Config) {
			c.Providers.Transcribe.Fallbacks = []config.ProviderEntry{{Name: "whisper"}}
		}},
		{"archive path", func(c *config.Config) { c.Archive.Path = "/elsewhere.jsonl" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			old := baseConfig()
			new := baseConfig()
			tc.mutate(new)

			if d := config.Diff(old, new); !d.RestartRequired {
				t.Errorf("RestartRequired = false, want true for %s change", tc.name)
			}
		})
	}
}
