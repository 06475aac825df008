// Package mock provides a test double for the transcribe package interface.
//
// Use Provider to feed controlled transcription results and inspect which
// audio windows were submitted:
//
//	p := &mock.Provider{Texts: []string{"hello world"}}
//	text, _ := p.Transcribe(ctx, wav)
package mock

import (
	"context"
	"sync"

	"github.com/ajaytemal-source/Resonate/pkg/provider/transcribe"
)

// Compile-time assertion that Provider implements transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// WAV is the container passed to Transcribe.
	WAV []byte
}

// Provider is a mock implementation of transcribe.Provider. The zero value
// returns "" for every call.
type Provider struct {
	mu sync.Mutex

	// Texts is the sequence of results returned by successive Transcribe
	// calls. Once exhausted, Text (or "") is returned.
	Texts []string

	// Text is the result returned after Texts is exhausted.
	Text string

	// Err, if non-nil, is returned as the error from every Transcribe call.
	Err error

	// Block, if non-nil, is received from before each call returns. Lets
	// tests hold a transcription in flight to observe backpressure.
	Block chan struct{}

	// Calls records every call to Transcribe.
	Calls []TranscribeCall
}

// Transcribe records the call and returns the next scripted result.
func (p *Provider) Transcribe(ctx context.Context, wav []byte) (string, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, TranscribeCall{Ctx: ctx, WAV: wav})
	text := p.Text
	if len(p.Texts) > 0 {
		text = p.Texts[0]
		p.Texts = p.Texts[1:]
	}
	err := p.Err
	block := p.Block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// CallCount returns the number of recorded Transcribe calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
