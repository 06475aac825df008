package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ajaytemal-source/Resonate/internal/observe"
	"github.com/ajaytemal-source/Resonate/internal/window"
	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

// OrchestratorConfig tunes the background pipelines.
type OrchestratorConfig struct {
	// RequestTimeout bounds each individual collaborator call. Default: 30s.
	RequestTimeout time.Duration

	// PollInterval is the delay between tone job status polls. Default: 500ms.
	PollInterval time.Duration

	// PollAttempts caps the tone poll loop. Default: 20.
	PollAttempts int
}

// applyDefaults fills zero fields with production defaults.
func (c *OrchestratorConfig) applyDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = 20
	}
}

// Orchestrator owns the session's background analysis tasks: tone analysis
// per secondary window and coaching feedback per completed transcription.
// Both are best-effort; their failures degrade the session, never end it.
// Tasks are tracked so Close can cancel and join them instead of leaking
// poll loops past the connection.
type Orchestrator struct {
	tone     tone.Provider
	feedback feedback.Provider

	state   *State
	agg     *Aggregator
	sink    Sink
	cfg     OrchestratorConfig
	metrics *observe.Metrics
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator for one session. toneProv and
// feedbackProv may be nil; the corresponding dispatches become no-ops, which
// covers the missing-credentials degradation path.
func NewOrchestrator(state *State, agg *Aggregator, sink Sink, toneProv tone.Provider, feedbackProv feedback.Provider, cfg OrchestratorConfig, m *observe.Metrics, log *slog.Logger) *Orchestrator {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = observe.DefaultMetrics()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		tone:     toneProv,
		feedback: feedbackProv,
		state:    state,
		agg:      agg,
		sink:     sink,
		cfg:      cfg,
		metrics:  m,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// DispatchTone starts one background tone analysis for w. The task submits
// the audio, polls to the attempt ceiling, fetches the result, and emits a
// tone update. Any failure or exhausted poll budget is logged and dropped;
// the session simply keeps its previous tone result.
func (o *Orchestrator) DispatchTone(w window.Window, wav []byte) {
	if o.tone == nil {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.trackTask("tone")
		defer o.untrackTask("tone")

		start := time.Now()
		res, ok := o.runTone(w, wav)
		if !ok {
			o.metrics.RecordProviderError(o.ctx, "tone")
			return
		}
		res.DurationMs = time.Since(start).Milliseconds()

		o.state.SetLastTone(res)
		o.metrics.ToneDuration.Record(o.ctx, time.Since(start).Seconds())
		o.metrics.RecordProviderRequest(o.ctx, "tone", "ok")

		event := o.agg.ToneUpdate(w, res)
		if err := o.sink.Send(o.ctx, event); err != nil {
			o.log.Debug("tone update not delivered", "seq", w.Seq, "err", err)
			return
		}
		o.metrics.RecordEvent(o.ctx, EventToneUpdate)
	}()
}

// runTone executes the submit/poll/fetch sequence. Returns ok=false on any
// failure; callers treat that as a silent give-up.
func (o *Orchestrator) runTone(w window.Window, wav []byte) (*tone.Result, bool) {
	jobID, err := call(o, func(ctx context.Context) (string, error) {
		return o.tone.Submit(ctx, wav)
	})
	if err != nil {
		o.log.Warn("tone submission failed", "seq", w.Seq, "err", err)
		return nil, false
	}

	for attempt := 0; attempt < o.cfg.PollAttempts; attempt++ {
		select {
		case <-o.ctx.Done():
			return nil, false
		case <-time.After(o.cfg.PollInterval):
		}

		status, err := call(o, func(ctx context.Context) (tone.Status, error) {
			return o.tone.Poll(ctx, jobID)
		})
		if err != nil {
			o.log.Debug("tone poll failed", "job_id", jobID, "attempt", attempt, "err", err)
			continue
		}

		switch status {
		case tone.StatusDone:
			res, err := call(o, func(ctx context.Context) (*tone.Result, error) {
				return o.tone.FetchResult(ctx, jobID)
			})
			if err != nil {
				o.log.Warn("tone result fetch failed", "job_id", jobID, "err", err)
				return nil, false
			}
			return res, true
		case tone.StatusFailed:
			o.log.Warn("tone job failed", "job_id", jobID)
			return nil, false
		default:
			// Pending; keep polling.
		}
	}

	o.log.Debug("tone poll budget exhausted", "job_id", jobID, "attempts", o.cfg.PollAttempts)
	return nil, false
}

// DispatchFeedback starts one background coaching feedback generation for a
// completed transcription segment. The client always receives an ai_feedback
// event per dispatch; on failure its feedback text is empty.
func (o *Orchestrator) DispatchFeedback(segment string) {
	if o.feedback == nil {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.trackTask("feedback")
		defer o.untrackTask("feedback")

		snap := o.state.Snapshot()
		payload := feedback.Payload{
			Segment:          segment,
			TotalTranscript:  snap.TotalTranscript,
			UserIntent:       snap.Meta.Intent,
			UserPurpose:      snap.Meta.Purpose,
			AudienceType:     snap.Meta.Audience,
			PreviousFeedback: snap.FeedbackHistory,
		}
		if snap.LastTone != nil {
			payload.VoiceAnalysis = snap.LastTone.Labels
		}

		start := time.Now()
		text, err := call(o, func(ctx context.Context) (string, error) {
			return o.feedback.Generate(ctx, payload)
		})
		if err != nil {
			o.log.Warn("feedback generation failed", "err", err)
			o.metrics.RecordProviderError(o.ctx, "feedback")
			text = ""
		} else {
			o.state.AppendFeedback(text)
			o.metrics.FeedbackDuration.Record(o.ctx, time.Since(start).Seconds())
			o.metrics.RecordProviderRequest(o.ctx, "feedback", "ok")
		}

		event := o.agg.Feedback(text, time.Now())
		if err := o.sink.Send(o.ctx, event); err != nil {
			o.log.Debug("feedback event not delivered", "err", err)
			return
		}
		o.metrics.RecordEvent(o.ctx, EventFeedback)
	}()
}

// Close cancels in-flight background tasks and waits for them to finish.
// Safe to call more than once.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// call runs fn under the per-request timeout derived from the orchestrator
// lifetime context. A free function because methods cannot carry type
// parameters.
func call[T any](o *Orchestrator, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(o.ctx, o.cfg.RequestTimeout)
	defer cancel()
	return fn(ctx)
}

func (o *Orchestrator) trackTask(pipeline string) {
	o.metrics.BackgroundTasks.Add(o.ctx, 1,
		metric.WithAttributes(attribute.String("pipeline", pipeline)))
}

func (o *Orchestrator) untrackTask(pipeline string) {
	o.metrics.BackgroundTasks.Add(o.ctx, -1,
		metric.WithAttributes(attribute.String("pipeline", pipeline)))
}
