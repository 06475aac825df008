// Command resonate is the main entry point for the Resonate live speech
// coaching server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/ajaytemal-source/Resonate/internal/archive"
	"github.com/ajaytemal-source/Resonate/internal/config"
	"github.com/ajaytemal-source/Resonate/internal/health"
	"github.com/ajaytemal-source/Resonate/internal/observe"
	"github.com/ajaytemal-source/Resonate/internal/resilience"
	"github.com/ajaytemal-source/Resonate/internal/server"
	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
	feedbackanyllm "github.com/ajaytemal-source/Resonate/pkg/provider/feedback/anyllm"
	feedbackopenai "github.com/ajaytemal-source/Resonate/pkg/provider/feedback/openai"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone/behavioral"
	"github.com/ajaytemal-source/Resonate/pkg/provider/transcribe"
	transcribeopenai "github.com/ajaytemal-source/Resonate/pkg/provider/transcribe/openai"
	transcribewhisper "github.com/ajaytemal-source/Resonate/pkg/provider/transcribe/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "resonate: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "resonate: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("resonate starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "resonate",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Server options ────────────────────────────────────────────────────────
	opts := []server.Option{server.WithLogger(logger)}

	if cfg.Archive.Path != "" {
		opts = append(opts, server.WithArchive(archive.NewFileStore(cfg.Archive.Path)))
		slog.Info("session archive enabled", "path", cfg.Archive.Path)
	}

	if breaker, ok := providers.Tone.(*resilience.ToneBreaker); ok {
		opts = append(opts, server.WithReadyCheck(health.Checker{
			Name: "tone",
			Check: func(context.Context) error {
				if breaker.State() == resilience.StateOpen {
					return errors.New("tone circuit open")
				}
				return nil
			},
		}))
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	// Only the log level applies live; anything else is reported so the
	// operator knows a restart is needed.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.RestartRequired {
			slog.Warn("config change requires restart to take effect")
		}
	})
	if err != nil {
		slog.Error("failed to watch config", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Serve ─────────────────────────────────────────────────────────────────
	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := server.New(cfg, providers, opts...).Run(ctx); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	// ── Transcription ─────────────────────────────────────────────────────────

	reg.RegisterTranscribe("openai", func(entry config.ProviderEntry) (transcribe.Provider, error) {
		var opts []transcribeopenai.Option
		if entry.Model != "" {
			opts = append(opts, transcribeopenai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, transcribeopenai.WithBaseURL(entry.BaseURL))
		}
		return transcribeopenai.New(entry.APIKey, opts...)
	})

	reg.RegisterTranscribe("whisper", func(entry config.ProviderEntry) (transcribe.Provider, error) {
		var opts []transcribewhisper.Option
		if entry.Model != "" {
			opts = append(opts, transcribewhisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, transcribewhisper.WithLanguage(lang))
		}
		return transcribewhisper.New(entry.BaseURL, opts...)
	})

	// ── Tone analysis ─────────────────────────────────────────────────────────
	// The backend is guarded by a circuit breaker so a dead API stops
	// costing a submit round trip per window.

	reg.RegisterTone("behavioral", func(entry config.ProviderEntry) (tone.Provider, error) {
		var opts []behavioral.Option
		if entry.BaseURL != "" {
			opts = append(opts, behavioral.WithBaseURL(entry.BaseURL))
		}
		p, err := behavioral.New(entry.ClientID, entry.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return resilience.NewToneBreaker(p, resilience.CircuitBreakerConfig{
			Name:         "tone",
			MaxFailures:  cfg.Pipelines.ToneBreaker.MaxFailures,
			ResetTimeout: cfg.Pipelines.ToneBreaker.ResetTimeout(),
		}), nil
	})

	// ── Coaching feedback ─────────────────────────────────────────────────────
	// openai uses the native SDK; the rest of the family goes through the
	// any-llm bridge with the shared APIKey + BaseURL pattern.

	reg.RegisterFeedback("openai", func(entry config.ProviderEntry) (feedback.Provider, error) {
		var opts []feedbackopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, feedbackopenai.WithBaseURL(entry.BaseURL))
		}
		return feedbackopenai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterFeedback(providerName, func(entry config.ProviderEntry) (feedback.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return feedbackanyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterFeedback("ollama", func(entry config.ProviderEntry) (feedback.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return feedbackanyllm.New("ollama", entry.Model, opts...)
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in a [server.Providers] struct.
func buildProviders(cfg *config.Config, reg *config.Registry) (server.Providers, error) {
	var ps server.Providers

	if name := cfg.Providers.Transcribe.Name; name != "" {
		p, err := reg.CreateTranscribe(cfg.Providers.Transcribe)
		if err != nil {
			return ps, fmt.Errorf("create transcribe provider %q: %w", name, err)
		}
		ps.Transcribe = p
		slog.Info("provider created", "kind", "transcribe", "name", name)

		if entries := cfg.Providers.Transcribe.Fallbacks; len(entries) > 0 {
			group := resilience.NewTranscribeFallback(p, name, resilience.FallbackConfig{})
			for _, entry := range entries {
				fb, err := reg.CreateTranscribe(entry)
				if err != nil {
					return ps, fmt.Errorf("create transcribe fallback %q: %w", entry.Name, err)
				}
				group.AddFallback(entry.Name, fb)
				slog.Info("fallback registered", "kind", "transcribe", "name", entry.Name)
			}
			ps.Transcribe = group
		}
	}

	if name := cfg.Providers.Tone.Name; name != "" {
		p, err := reg.CreateTone(cfg.Providers.Tone)
		if err != nil {
			return ps, fmt.Errorf("create tone provider %q: %w", name, err)
		}
		ps.Tone = p
		slog.Info("provider created", "kind", "tone", "name", name)
	}

	if name := cfg.Providers.Feedback.Name; name != "" {
		p, err := reg.CreateFeedback(cfg.Providers.Feedback)
		if err != nil {
			return ps, fmt.Errorf("create feedback provider %q: %w", name, err)
		}
		ps.Feedback = p
		slog.Info("provider created", "kind", "feedback", "name", name)

		if entries := cfg.Providers.Feedback.Fallbacks; len(entries) > 0 {
			group := resilience.NewFeedbackFallback(p, name, resilience.FallbackConfig{})
			for _, entry := range entries {
				fb, err := reg.CreateFeedback(entry)
				if err != nil {
					return ps, fmt.Errorf("create feedback fallback %q: %w", entry.Name, err)
				}
				group.AddFallback(entry.Name, fb)
				slog.Info("fallback registered", "kind", "feedback", "name", entry.Name)
			}
			ps.Feedback = group
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Resonate — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Transcribe", cfg.Providers.Transcribe.Name, cfg.Providers.Transcribe.Model)
	printProvider("Tone", cfg.Providers.Tone.Name, cfg.Providers.Tone.Model)
	printProvider("Feedback", cfg.Providers.Feedback.Name, cfg.Providers.Feedback.Model)
	if cfg.Archive.Path != "" {
		fmt.Printf("║  Archive         : %-19s ║\n", truncate(cfg.Archive.Path, 19))
	} else {
		fmt.Printf("║  Archive         : %-19s ║\n", "(disabled)")
	}
	fmt.Printf("║  Sample rate     : %-19d ║\n", cfg.Audio.SampleRate)
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, truncate(value, 19))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "…"
	}
	return s
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
