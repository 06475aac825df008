// Package mock provides a test double for the feedback package interface.
package mock

import (
	"context"
	"sync"

	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
)

// Compile-time assertion that Provider implements feedback.Provider.
var _ feedback.Provider = (*Provider)(nil)

// Provider is a mock implementation of feedback.Provider. The zero value
// returns "" for every call.
type Provider struct {
	mu sync.Mutex

	// Text is the feedback returned by Generate.
	Text string

	// Err, if non-nil, is returned as the error from Generate.
	Err error

	// Calls records every payload passed to Generate.
	Calls []feedback.Payload
}

// Generate records the call and returns the scripted result.
func (p *Provider) Generate(ctx context.Context, payload feedback.Payload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, payload)
	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}

// CallCount returns the number of recorded Generate calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
