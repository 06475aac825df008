package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
	"github.com/ajaytemal-source/Resonate/pkg/provider/transcribe"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	transcribe map[string]func(ProviderEntry) (transcribe.Provider, error)
	tone       map[string]func(ProviderEntry) (tone.Provider, error)
	feedback   map[string]func(ProviderEntry) (feedback.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		transcribe: make(map[string]func(ProviderEntry) (transcribe.Provider, error)),
		tone:       make(map[string]func(ProviderEntry) (tone.Provider, error)),
		feedback:   make(map[string]func(ProviderEntry) (feedback.Provider, error)),
	}
}

// RegisterTranscribe registers a transcription provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterTranscribe(name string, factory func(ProviderEntry) (transcribe.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcribe[name] = factory
}

// RegisterTone registers a tone analysis provider factory under name.
func (r *Registry) RegisterTone(name string, factory func(ProviderEntry) (tone.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tone[name] = factory
}

// RegisterFeedback registers a coaching feedback provider factory under name.
func (r *Registry) RegisterFeedback(name string, factory func(ProviderEntry) (feedback.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback[name] = factory
}

// CreateTranscribe instantiates a transcription provider using the factory
// registered under entry.Name. Returns [ErrProviderNotRegistered] if no
// factory has been registered for that name.
func (r *Registry) CreateTranscribe(entry ProviderEntry) (transcribe.Provider, error) {
	r.mu.RLock()
	factory, ok := r.transcribe[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcribe/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTone instantiates a tone provider using the factory registered under entry.Name.
func (r *Registry) CreateTone(entry ProviderEntry) (tone.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tone[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tone/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateFeedback instantiates a feedback provider using the factory registered under entry.Name.
func (r *Registry) CreateFeedback(entry ProviderEntry) (feedback.Provider, error) {
	r.mu.RLock()
	factory, ok := r.feedback[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: feedback/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
