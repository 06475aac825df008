// Package session implements the per-connection coaching session: mutable
// session state, the inbound frame protocol, the background analysis
// pipelines, and the outgoing event payloads they produce.
//
// One [Processor] owns one connection. Inbound frames are driven by a single
// reader loop; the transcription call deliberately blocks that loop so no
// second primary window is evaluated while one is in flight. Tone analysis
// and coaching feedback run as tracked background tasks under the
// [Orchestrator] and report back through the shared [State] and the event
// [Sink].
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

// DefaultStreamID is the sentinel stream identifier used until the client
// announces one.
const DefaultStreamID = "unknown"

// Metadata holds the client-supplied coaching context, set by the
// stream_start control message.
type Metadata struct {
	Intent   string
	Purpose  string
	Audience string
}

// State is the mutable record for one session. Background pipelines mutate
// disjoint fields concurrently with the frame handler; every access goes
// through the mutex. Last-writer-wins on lastTone is intentional: tone
// results complete out of order and the freshest completion is the one the
// next event should carry.
type State struct {
	mu sync.Mutex

	streamID   string
	sampleRate int
	meta       Metadata

	totalTranscript strings.Builder
	feedbackHistory []string
	lastTone        *tone.Result

	primaryWindows   int
	secondaryWindows int
	started          time.Time
}

// Snapshot is a point-in-time copy of session state, used to build outgoing
// events and the archive record without holding the lock across I/O.
type Snapshot struct {
	StreamID        string
	SampleRate      int
	Meta            Metadata
	TotalTranscript string
	FeedbackHistory []string
	LastTone        *tone.Result

	PrimaryWindows   int
	SecondaryWindows int
	Started          time.Time
}

// NewState creates session state with the given default sample rate and the
// sentinel stream ID.
func NewState(sampleRate int) *State {
	return &State{
		streamID:   DefaultStreamID,
		sampleRate: sampleRate,
		started:    time.Now(),
	}
}

// SetStream applies the stream_start fields. Zero values leave the current
// setting untouched so a sparse control message does not reset anything.
func (s *State) SetStream(streamID string, sampleRate int, meta Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != "" {
		s.streamID = streamID
	}
	if sampleRate > 0 {
		s.sampleRate = sampleRate
	}
	if meta.Intent != "" {
		s.meta.Intent = meta.Intent
	}
	if meta.Purpose != "" {
		s.meta.Purpose = meta.Purpose
	}
	if meta.Audience != "" {
		s.meta.Audience = meta.Audience
	}
}

// StreamID returns the current stream identifier.
func (s *State) StreamID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamID
}

// SampleRate returns the session sample rate in Hz.
func (s *State) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// AppendTranscript appends one space-joined segment to the accumulated
// transcript.
func (s *State) AppendTranscript(segment string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.totalTranscript.Len() > 0 {
		s.totalTranscript.WriteByte(' ')
	}
	s.totalTranscript.WriteString(segment)
}

// AppendFeedback appends one coaching feedback string to the history.
func (s *State) AppendFeedback(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedbackHistory = append(s.feedbackHistory, text)
}

// SetLastTone overwrites the last-known tone result.
func (s *State) SetLastTone(res *tone.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTone = res
}

// LastTone returns the last-known tone result, which may be nil or stale.
func (s *State) LastTone() *tone.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTone
}

// CountWindow records a dispatched window for the archive counters.
func (s *State) CountWindow(primary bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if primary {
		s.primaryWindows++
	} else {
		s.secondaryWindows++
	}
}

// Snapshot copies the current state. The feedback history slice is copied;
// the tone result pointer is shared but never mutated after being set.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]string, len(s.feedbackHistory))
	copy(history, s.feedbackHistory)

	return Snapshot{
		StreamID:         s.streamID,
		SampleRate:       s.sampleRate,
		Meta:             s.meta,
		TotalTranscript:  s.totalTranscript.String(),
		FeedbackHistory:  history,
		LastTone:         s.lastTone,
		PrimaryWindows:   s.primaryWindows,
		SecondaryWindows: s.secondaryWindows,
		Started:          s.started,
	}
}
