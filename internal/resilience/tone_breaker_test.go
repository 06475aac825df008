package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
	tonemock "github.com/ajaytemal-source/Resonate/pkg/provider/tone/mock"
)

func TestToneBreaker_PassThrough(t *testing.T) {
	job := &tonemock.Job{
		ID:     "42",
		Result: &tone.Result{Labels: map[string]string{"emotion": "happy"}},
	}
	inner := &tonemock.Provider{
		Jobs:      []*tonemock.Job{job},
		MetaValue: tone.Meta{ClientID: "client", Endpoint: "https://api.example"},
	}
	tb := NewToneBreaker(inner, CircuitBreakerConfig{MaxFailures: 3})

	jobID, err := tb.Submit(context.Background(), []byte("wav"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if jobID != "42" {
		t.Errorf("jobID = %q, want %q", jobID, "42")
	}

	status, err := tb.Poll(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if status != tone.StatusDone {
		t.Errorf("status = %v, want done", status)
	}

	res, err := tb.FetchResult(context.Background(), jobID)
	if err != nil {
		t.Fatalf("FetchResult: %v", err)
	}
	if res.Labels["emotion"] != "happy" {
		t.Errorf("labels = %v, want emotion=happy", res.Labels)
	}

	if got := tb.Meta().ClientID; got != "client" {
		t.Errorf("Meta().ClientID = %q, want %q", got, "client")
	}
}

func TestToneBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &tonemock.Provider{SubmitErr: errors.New("api down")}
	tb := NewToneBreaker(inner, CircuitBreakerConfig{MaxFailures: 2})

	for range 2 {
		if _, err := tb.Submit(context.Background(), nil); err == nil {
			t.Fatal("expected submit error")
		}
	}
	if tb.State() != StateOpen {
		t.Fatalf("state = %v, want open", tb.State())
	}

	_, err := tb.Submit(context.Background(), nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if inner.SubmitCount != 2 {
		t.Errorf("inner submits = %d, want 2 (open breaker must not forward)", inner.SubmitCount)
	}
}
