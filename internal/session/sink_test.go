package session_test

import (
	"context"
	"sync"
	"testing"
	"time"
)

// captureSink records every event and exposes them on a channel so tests can
// wait for asynchronous pipeline completions.
type captureSink struct {
	mu     sync.Mutex
	events []any
	ch     chan any
}

func newCaptureSink() *captureSink {
	return &captureSink{ch: make(chan any, 64)}
}

func (s *captureSink) Send(_ context.Context, event any) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.ch <- event
	return nil
}

// all returns a copy of every event sent so far.
func (s *captureSink) all() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, len(s.events))
	copy(out, s.events)
	return out
}

// waitFor blocks until an event matching match arrives or the timeout hits.
func (s *captureSink) waitFor(t *testing.T, match func(any) bool) any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-s.ch:
			if match(e) {
				return e
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}
