// Package tone defines the Provider interface for asynchronous paralinguistic
// ("tone") analysis backends.
//
// Tone analysis is a submit/poll/fetch protocol: the caller submits one
// WAV-encoded audio window, receives a job ID, polls the job until it reaches
// a terminal status, and fetches the structured result once done. The session
// layer drives the poll loop with its own interval and attempt ceiling; a
// provider only models the three remote calls. Implementations must be safe
// for concurrent use — several jobs from one session may be in flight at once.
package tone

import (
	"context"
	"encoding/json"
)

// Status is the observed state of a submitted analysis job.
type Status int

const (
	// StatusPending means the job is still being processed.
	StatusPending Status = iota

	// StatusDone means results are ready to fetch.
	StatusDone

	// StatusFailed means the job terminally failed; results will never exist.
	StatusFailed
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the structured outcome of one completed analysis job.
type Result struct {
	// Labels maps each analysis task (e.g. "emotion", "positivity") to its
	// final label.
	Labels map[string]string

	// Raw is the unparsed results document as returned by the backend.
	Raw json.RawMessage

	// StatusCode is the HTTP status of the results fetch, recorded for the
	// outgoing behavioral_signals event block.
	StatusCode int

	// DurationMs is the wall-clock time from submission to fetched result.
	// Filled in by the pipeline that drove the poll loop.
	DurationMs int64
}

// Meta identifies the backend for outgoing event payloads.
type Meta struct {
	// ClientID is the backend account identifier.
	ClientID string

	// Endpoint is the submission URL.
	Endpoint string
}

// Provider models an asynchronous tone-analysis backend.
type Provider interface {
	// Submit uploads wav for analysis and returns the backend job ID.
	Submit(ctx context.Context, wav []byte) (jobID string, err error)

	// Poll reports the current status of a submitted job.
	Poll(ctx context.Context, jobID string) (Status, error)

	// FetchResult retrieves the structured result of a done job.
	FetchResult(ctx context.Context, jobID string) (*Result, error)

	// Meta returns static backend identity for event payloads.
	Meta() Meta
}
