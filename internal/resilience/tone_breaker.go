package resilience

import (
	"context"

	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

// ToneBreaker wraps a [tone.Provider] with a circuit breaker guarding the
// submission path. Tone analysis is best-effort: when the remote API is
// failing consistently the breaker rejects new submissions immediately so
// that sessions stop burning a poll loop on a dead backend. Poll and
// FetchResult pass through unguarded since they only run for jobs whose
// submission already succeeded.
type ToneBreaker struct {
	inner   tone.Provider
	breaker *CircuitBreaker
}

// Compile-time interface assertion.
var _ tone.Provider = (*ToneBreaker)(nil)

// NewToneBreaker wraps inner with a circuit breaker configured by cfg.
func NewToneBreaker(inner tone.Provider, cfg CircuitBreakerConfig) *ToneBreaker {
	if cfg.Name == "" {
		cfg.Name = "tone"
	}
	return &ToneBreaker{
		inner:   inner,
		breaker: NewCircuitBreaker(cfg),
	}
}

// Submit forwards the job submission when the breaker allows it. Returns
// [ErrCircuitOpen] without contacting the backend while the breaker is open.
func (t *ToneBreaker) Submit(ctx context.Context, wav []byte) (string, error) {
	var jobID string
	err := t.breaker.Execute(func() error {
		var innerErr error
		jobID, innerErr = t.inner.Submit(ctx, wav)
		return innerErr
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// Poll forwards to the wrapped provider.
func (t *ToneBreaker) Poll(ctx context.Context, jobID string) (tone.Status, error) {
	return t.inner.Poll(ctx, jobID)
}

// FetchResult forwards to the wrapped provider.
func (t *ToneBreaker) FetchResult(ctx context.Context, jobID string) (*tone.Result, error) {
	return t.inner.FetchResult(ctx, jobID)
}

// Meta forwards to the wrapped provider.
func (t *ToneBreaker) Meta() tone.Meta {
	return t.inner.Meta()
}

// State reports the current breaker state, mainly for readiness checks.
func (t *ToneBreaker) State() State {
	return t.breaker.State()
}
