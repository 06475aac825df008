package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ajaytemal-source/Resonate/internal/window"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

// Event type discriminators carried in outgoing payloads.
const (
	EventToneUpdate     = "bs_update"
	EventFeedback       = "ai_feedback"
	EventStreamComplete = "stream_complete"
)

// streamCompleteMessage is the fixed acknowledgment text for stream_end.
const streamCompleteMessage = "Audio stream processing complete"

// Sink delivers outgoing events to the client. Implementations marshal the
// event to JSON and write it as one text frame. Send must be safe for
// concurrent use; pipeline completions interleave arbitrarily.
type Sink interface {
	Send(ctx context.Context, event any) error
}

// BehavioralSignals describes the tone analysis attempt attached to an
// outgoing event: which account and endpoint served it, how the request
// fared, and the raw provider response for clients that want more than the
// extracted labels.
type BehavioralSignals struct {
	ClientID   string          `json:"client_id"`
	Endpoint   string          `json:"endpoint"`
	StatusCode int             `json:"status_code"`
	DurationMs int64           `json:"duration_ms"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// Chunk is the wall-clock span of audio a tone update covers.
type Chunk struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// TranscriptionText nests the segment text inside the LLM payload.
type TranscriptionText struct {
	Text string `json:"text"`
}

// LLMPayload mirrors the coaching request built for the feedback provider,
// echoed to the client so it can see exactly what context drove the
// feedback.
type LLMPayload struct {
	Transcription    TranscriptionText `json:"transcription"`
	UserIntent       string            `json:"user_intent"`
	UserPurpose      string            `json:"user_purpose"`
	AudienceType     string            `json:"audience_type"`
	TotalTranscript  string            `json:"total_transcript"`
	PreviousFeedback []string          `json:"previous_feedback"`
	VoiceAnalysis    map[string]string `json:"voice_analysis,omitempty"`
}

// TranscriptionEvent reports one completed primary-window transcription.
// Feedback and BehavioralSignals carry whatever the last tone completion
// produced, even when that result belongs to an earlier window. Feedback is
// never null on the wire; before any tone completion it is {}.
type TranscriptionEvent struct {
	StreamID          string             `json:"stream_id"`
	TimestampMs       int64              `json:"timestamp_ms"`
	Transcript        string             `json:"transcript"`
	Feedback          map[string]string  `json:"feedback"`
	BehavioralSignals *BehavioralSignals `json:"behavioral_signals,omitempty"`
	Text              string             `json:"text"`
	LLM               *LLMPayload        `json:"llm,omitempty"`
}

// ToneUpdateEvent reports one completed tone analysis.
type ToneUpdateEvent struct {
	Type              string             `json:"type"`
	Chunk             Chunk              `json:"chunk"`
	Feedback          map[string]string  `json:"feedback"`
	BehavioralSignals *BehavioralSignals `json:"behavioral_signals,omitempty"`
}

// FeedbackEvent reports one coaching feedback attempt. Feedback is empty
// when generation failed; the event is still sent so every completed
// transcription is acknowledged.
type FeedbackEvent struct {
	Type        string `json:"type"`
	Feedback    string `json:"feedback"`
	UserIntent  string `json:"user_intent"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// StreamCompleteEvent acknowledges a stream_end control message.
type StreamCompleteEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Aggregator builds outgoing events by snapshotting session state at the
// moment a pipeline completes. It never waits for a pipeline it does not
// own; stale tone results are included as-is.
type Aggregator struct {
	state *State
	meta  tone.Meta
}

// NewAggregator creates an Aggregator over state. meta identifies the tone
// provider in behavioral_signals blocks; the zero value is fine when no tone
// provider is configured.
func NewAggregator(state *State, meta tone.Meta) *Aggregator {
	return &Aggregator{state: state, meta: meta}
}

// signals converts a tone result into its event block. Returns nil for a nil
// result so the JSON field is omitted entirely.
func (a *Aggregator) signals(res *tone.Result) *BehavioralSignals {
	if res == nil {
		return nil
	}
	return &BehavioralSignals{
		ClientID:   a.meta.ClientID,
		Endpoint:   a.meta.Endpoint,
		StatusCode: res.StatusCode,
		DurationMs: res.DurationMs,
		Raw:        res.Raw,
	}
}

// Transcription builds the event for one completed transcription segment.
func (a *Aggregator) Transcription(segment string, now time.Time) TranscriptionEvent {
	snap := a.state.Snapshot()

	labels := map[string]string{}
	if snap.LastTone != nil && len(snap.LastTone.Labels) > 0 {
		labels = snap.LastTone.Labels
	}

	return TranscriptionEvent{
		StreamID:          snap.StreamID,
		TimestampMs:       now.UnixMilli(),
		Transcript:        segment,
		Feedback:          labels,
		BehavioralSignals: a.signals(snap.LastTone),
		Text:              segment,
		LLM: &LLMPayload{
			Transcription:    TranscriptionText{Text: segment},
			UserIntent:       snap.Meta.Intent,
			UserPurpose:      snap.Meta.Purpose,
			AudienceType:     snap.Meta.Audience,
			TotalTranscript:  snap.TotalTranscript,
			PreviousFeedback: snap.FeedbackHistory,
			VoiceAnalysis:    labels,
		},
	}
}

// ToneUpdate builds the event for one completed tone analysis of w.
func (a *Aggregator) ToneUpdate(w window.Window, res *tone.Result) ToneUpdateEvent {
	return ToneUpdateEvent{
		Type:              EventToneUpdate,
		Chunk:             Chunk{StartMs: w.StartMs, EndMs: w.EndMs},
		Feedback:          res.Labels,
		BehavioralSignals: a.signals(res),
	}
}

// Feedback builds the event for one coaching feedback attempt.
func (a *Aggregator) Feedback(text string, now time.Time) FeedbackEvent {
	snap := a.state.Snapshot()
	return FeedbackEvent{
		Type:        EventFeedback,
		Feedback:    text,
		UserIntent:  snap.Meta.Intent,
		TimestampMs: now.UnixMilli(),
	}
}

// StreamComplete builds the stream_end acknowledgment.
func (a *Aggregator) StreamComplete() StreamCompleteEvent {
	return StreamCompleteEvent{
		Type:    EventStreamComplete,
		Message: streamCompleteMessage,
	}
}
