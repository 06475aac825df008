package resilience

import (
	"context"

	"github.com/ajaytemal-source/Resonate/pkg/provider/feedback"
)

// FeedbackFallback implements [feedback.Provider] with automatic failover
// across multiple coaching backends. Each backend has its own circuit breaker.
type FeedbackFallback struct {
	group *FallbackGroup[feedback.Provider]
}

// Compile-time interface assertion.
var _ feedback.Provider = (*FeedbackFallback)(nil)

// NewFeedbackFallback creates a [FeedbackFallback] with primary as the
// preferred backend.
func NewFeedbackFallback(primary feedback.Provider, primaryName string, cfg FallbackConfig) *FeedbackFallback {
	return &FeedbackFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional coaching provider as a fallback.
func (f *FeedbackFallback) AddFallback(name string, provider feedback.Provider) {
	f.group.AddFallback(name, provider)
}

// Generate produces coaching feedback using the first healthy backend.
func (f *FeedbackFallback) Generate(ctx context.Context, p feedback.Payload) (string, error) {
	return ExecuteWithResult(f.group, func(prov feedback.Provider) (string, error) {
		return prov.Generate(ctx, p)
	})
}
