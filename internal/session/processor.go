package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ajaytemal-source/Resonate/internal/archive"
	"github.com/ajaytemal-source/Resonate/internal/observe"
	"github.com/ajaytemal-source/Resonate/internal/window"
	"github.com/ajaytemal-source/Resonate/pkg/audio"
	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
	"github.com/ajaytemal-source/Resonate/pkg/provider/transcribe"
)

// Phase is the protocol state of one session.
type Phase int

const (
	// PhaseInit accepts both control and binary frames; binary frames before
	// any control frame are processed with default metadata.
	PhaseInit Phase = iota

	// PhaseStreaming is entered by the first stream_start control message.
	PhaseStreaming

	// PhaseEnded is terminal; frames after stream_end are ignored.
	PhaseEnded
)

// String returns the human-readable name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseStreaming:
		return "streaming"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// controlMessage is the inbound text frame schema. Unknown types are
// ignored; unknown fields are tolerated.
type controlMessage struct {
	Type         string `json:"type"`
	StreamID     string `json:"stream_id"`
	SampleRate   int    `json:"sample_rate"`
	UserIntent   string `json:"user_intent"`
	UserPurpose  string `json:"user_purpose"`
	AudienceType string `json:"audience_type"`
}

// Control message types.
const (
	msgStreamStart = "stream_start"
	msgStreamEnd   = "stream_end"
)

// ProcessorConfig wires one session's collaborators and tuning.
type ProcessorConfig struct {
	// ConnectionID identifies the transport connection in logs and archives.
	ConnectionID string

	// DefaultSampleRate applies until a stream_start announces one.
	// Default: 16000.
	DefaultSampleRate int

	// Windows is the trigger policy. Zero durations use the package defaults.
	Windows window.Config

	// Transcriber handles primary windows. May be nil; primary windows are
	// then counted but produce no transcript.
	Transcriber transcribe.Provider

	// Orchestrator tuning for the background pipelines.
	Orchestrator OrchestratorConfig

	// Archive persists the finished session. May be nil.
	Archive *archive.FileStore

	// Metrics defaults to observe.DefaultMetrics when nil.
	Metrics *observe.Metrics

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Processor drives one connection: it classifies inbound frames, owns the
// window buffer and session state, runs the serialized transcription path,
// and hands background work to its [Orchestrator].
//
// HandleText and HandleBinary are driven by the connection's single reader
// loop; they are not safe for concurrent use with each other. Close may be
// called from another goroutine.
type Processor struct {
	cfg  ProcessorConfig
	sink Sink

	state *State
	agg   *Aggregator
	orch  *Orchestrator
	buf   *window.Buffer

	transcriber transcribe.Provider
	metrics     *observe.Metrics
	log         *slog.Logger

	mu     sync.Mutex
	phase  Phase
	closed bool
}

// NewProcessor creates a session processor. sink must not be nil.
func NewProcessor(cfg ProcessorConfig, sink Sink, orch *Orchestrator, state *State, agg *Aggregator) *Processor {
	if cfg.DefaultSampleRate <= 0 {
		cfg.DefaultSampleRate = 16000
	}
	cfg.Orchestrator.applyDefaults()
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Processor{
		cfg:         cfg,
		sink:        sink,
		state:       state,
		agg:         agg,
		orch:        orch,
		transcriber: cfg.Transcriber,
		metrics:     cfg.Metrics,
		log:         cfg.Logger.With("connection_id", cfg.ConnectionID),
	}
}

// New assembles a complete session: state, aggregator, orchestrator, and
// processor. toneProv and feedbackProv may be nil.
func New(cfg ProcessorConfig, sink Sink, toneProv tone.Provider, feedbackProv feedback.Provider) *Processor {
	if cfg.DefaultSampleRate <= 0 {
		cfg.DefaultSampleRate = 16000
	}

	state := NewState(cfg.DefaultSampleRate)

	var meta tone.Meta
	if toneProv != nil {
		meta = toneProv.Meta()
	}
	agg := NewAggregator(state, meta)
	orch := NewOrchestrator(state, agg, sink, toneProv, feedbackProv, cfg.Orchestrator, cfg.Metrics, cfg.Logger)

	return NewProcessor(cfg, sink, orch, state, agg)
}

// Phase returns the current protocol phase.
func (p *Processor) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// HandleText processes one inbound text frame. Malformed JSON is logged and
// dropped with no state transition.
func (p *Processor) HandleText(ctx context.Context, data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		p.log.Warn("dropping malformed control frame", "err", err)
		return
	}

	switch msg.Type {
	case msgStreamStart:
		p.handleStreamStart(msg)
	case msgStreamEnd:
		p.handleStreamEnd(ctx)
	default:
		p.log.Debug("ignoring unknown control message", "type", msg.Type)
	}
}

// handleStreamStart applies metadata and enters PhaseStreaming. Duplicate
// stream_start messages update metadata again; an ended session ignores
// them.
func (p *Processor) handleStreamStart(msg controlMessage) {
	p.mu.Lock()
	if p.phase == PhaseEnded {
		p.mu.Unlock()
		return
	}
	p.phase = PhaseStreaming
	p.mu.Unlock()

	p.state.SetStream(msg.StreamID, msg.SampleRate, Metadata{
		Intent:   msg.UserIntent,
		Purpose:  msg.UserPurpose,
		Audience: msg.AudienceType,
	})
	p.log.Info("stream started",
		"stream_id", p.state.StreamID(),
		"sample_rate", p.state.SampleRate(),
	)
}

// handleStreamEnd transitions to PhaseEnded exactly once: it acknowledges
// the client, joins the background tasks, and archives the session.
func (p *Processor) handleStreamEnd(ctx context.Context) {
	p.mu.Lock()
	if p.phase == PhaseEnded {
		p.mu.Unlock()
		return
	}
	p.phase = PhaseEnded
	p.mu.Unlock()

	if err := p.sink.Send(ctx, p.agg.StreamComplete()); err != nil {
		p.log.Debug("stream complete ack not delivered", "err", err)
	} else {
		p.metrics.RecordEvent(ctx, EventStreamComplete)
	}

	p.orch.Close()
	p.archiveSession()
	p.log.Info("stream ended", "stream_id", p.state.StreamID())
}

// HandleBinary processes one inbound audio frame: decode, buffer, and fire
// whatever windows the append triggers. Frames after stream_end are ignored.
//
// The transcription call is deliberately synchronous here. The reader loop
// does not pick up the next frame until it returns, which is the
// backpressure that keeps primary-window bookkeeping from racing a second
// cut. Transport buffering absorbs frames that arrive in the meantime.
func (p *Processor) HandleBinary(ctx context.Context, frame []byte) {
	p.mu.Lock()
	if p.phase == PhaseEnded {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if len(frame) == 0 {
		return
	}

	buf, err := p.buffer()
	if err != nil {
		p.log.Error("window buffer unavailable", "err", err)
		return
	}

	samples := audio.DecodeAndNormalize(frame)
	for _, w := range buf.Append(samples) {
		switch w.Kind {
		case window.KindSecondary:
			p.state.CountWindow(false)
			p.metrics.RecordWindow(ctx, w.Kind.String())
			wav := audio.EncodeWAV(w.Samples, p.state.SampleRate())
			p.orch.DispatchTone(w, wav)
		case window.KindPrimary:
			p.state.CountWindow(true)
			p.metrics.RecordWindow(ctx, w.Kind.String())
			p.transcribeWindow(ctx, w)
		}
	}
}

// buffer lazily creates the window buffer on the first audio frame, fixing
// the sample rate for the rest of the session.
func (p *Processor) buffer() (*window.Buffer, error) {
	if p.buf != nil {
		return p.buf, nil
	}

	cfg := p.cfg.Windows
	cfg.SampleRate = p.state.SampleRate()
	buf, err := window.New(cfg)
	if err != nil {
		return nil, err
	}
	p.buf = buf
	return buf, nil
}

// transcribeWindow runs the serialized transcription path for one primary
// window. Collaborator failures and empty transcripts produce no event and
// no feedback dispatch; the session continues.
func (p *Processor) transcribeWindow(ctx context.Context, w window.Window) {
	if p.transcriber == nil {
		return
	}

	wav := audio.EncodeWAV(w.Samples, p.state.SampleRate())

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Orchestrator.RequestTimeout)
	start := time.Now()
	segment, err := p.transcriber.Transcribe(callCtx, wav)
	cancel()
	if err != nil {
		p.log.Warn("transcription failed", "seq", w.Seq, "err", err)
		p.metrics.RecordProviderError(ctx, "transcribe")
		return
	}
	p.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	p.metrics.RecordProviderRequest(ctx, "transcribe", "ok")

	if segment == "" {
		p.log.Debug("empty transcription segment", "seq", w.Seq)
		return
	}

	p.state.AppendTranscript(segment)

	event := p.agg.Transcription(segment, time.Now())
	if err := p.sink.Send(ctx, event); err != nil {
		p.log.Debug("transcription event not delivered", "seq", w.Seq, "err", err)
	}

	p.orch.DispatchFeedback(segment)
}

// Close tears the session down when the connection closes: background tasks
// are joined and, if the session never saw stream_end, it is archived now.
// Idempotent.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	alreadyEnded := p.phase == PhaseEnded
	p.phase = PhaseEnded
	p.mu.Unlock()

	p.orch.Close()
	if !alreadyEnded {
		p.archiveSession()
	}
}

// archiveSession persists the finished session. Best-effort; failures are
// logged only.
func (p *Processor) archiveSession() {
	if p.cfg.Archive == nil {
		return
	}

	snap := p.state.Snapshot()
	rec := archive.Record{
		StreamID:         snap.StreamID,
		ConnectionID:     p.cfg.ConnectionID,
		UserIntent:       snap.Meta.Intent,
		UserPurpose:      snap.Meta.Purpose,
		AudienceType:     snap.Meta.Audience,
		TotalTranscript:  snap.TotalTranscript,
		FeedbackHistory:  snap.FeedbackHistory,
		PrimaryWindows:   snap.PrimaryWindows,
		SecondaryWindows: snap.SecondaryWindows,
		DurationMs:       time.Since(snap.Started).Milliseconds(),
	}
	if snap.LastTone != nil {
		rec.ToneLabels = snap.LastTone.Labels
	}

	if err := p.cfg.Archive.SaveSession(rec); err != nil {
		p.log.Warn("session archive failed", "stream_id", snap.StreamID, "err", err)
	}
}
