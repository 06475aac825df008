package session_test

import (
	"testing"

	"github.com/ajaytemal-source/Resonate/internal/session"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

func TestState_Defaults(t *testing.T) {
	t.Parallel()
	s := session.NewState(16000)

	if got := s.StreamID(); got != session.DefaultStreamID {
		t.Errorf("StreamID = %q, want %q", got, session.DefaultStreamID)
	}
	if got := s.SampleRate(); got != 16000 {
		t.Errorf("SampleRate = %d, want 16000", got)
	}
}

func TestState_SetStreamIgnoresZeroValues(t *testing.T) {
	t.Parallel()
	s := session.NewState(16000)
	s.SetStream("stream-1", 8000, session.Metadata{Intent: "practice", Purpose: "keynote", Audience: "investors"})

	// A sparse duplicate stream_start must not reset anything.
	s.SetStream("", 0, session.Metadata{Purpose: "updated"})

	if got := s.StreamID(); got != "stream-1" {
		t.Errorf("StreamID = %q, want %q", got, "stream-1")
	}
	if got := s.SampleRate(); got != 8000 {
		t.Errorf("SampleRate = %d, want 8000", got)
	}
	snap := s.Snapshot()
	if snap.Meta.Intent != "practice" {
		t.Errorf("Intent = %q, want retained", snap.Meta.Intent)
	}
	if snap.Meta.Purpose != "updated" {
		t.Errorf("Purpose = %q, want %q", snap.Meta.Purpose, "updated")
	}
}

func TestState_TranscriptSpaceJoined(t *testing.T) {
	t.Parallel()
	s := session.NewState(16000)

	s.AppendTranscript("hello everyone")
	s.AppendTranscript("thanks for coming")

	want := "hello everyone thanks for coming"
	if got := s.Snapshot().TotalTranscript; got != want {
		t.Errorf("TotalTranscript = %q, want %q", got, want)
	}
}

func TestState_LastToneOverwritten(t *testing.T) {
	t.Parallel()
	s := session.NewState(16000)

	first := &tone.Result{Labels: map[string]string{"emotion": "neutral"}}
	second := &tone.Result{Labels: map[string]string{"emotion": "happy"}}
	s.SetLastTone(first)
	s.SetLastTone(second)

	if got := s.LastTone(); got != second {
		t.Error("LastTone should hold the most recently set result")
	}
}

func TestState_SnapshotIsolatesHistory(t *testing.T) {
	t.Parallel()
	s := session.NewState(16000)
	s.AppendFeedback("Slow down slightly")

	snap := s.Snapshot()
	snap.FeedbackHistory[0] = "mutated"

	if got := s.Snapshot().FeedbackHistory[0]; got != "Slow down slightly" {
		t.Errorf("history = %q, snapshot mutation leaked into state", got)
	}
}

func TestState_WindowCounters(t *testing.T) {
	t.Parallel()
	s := session.NewState(16000)

	s.CountWindow(true)
	s.CountWindow(true)
	s.CountWindow(false)

	snap := s.Snapshot()
	if snap.PrimaryWindows != 2 {
		t.Errorf("PrimaryWindows = %d, want 2", snap.PrimaryWindows)
	}
	if snap.SecondaryWindows != 1 {
		t.Errorf("SecondaryWindows = %d, want 1", snap.SecondaryWindows)
	}
}
