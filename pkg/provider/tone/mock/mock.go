// Package mock provides a test double for the tone package interfaces.
//
// Jobs complete under test control: each Submit hands out the next scripted
// [Job], whose Release channel gates when Poll starts reporting done. This
// lets tests order the completion of concurrent dispatches deterministically
// instead of racing timers.
//
//	job := &mock.Job{ID: "1", Result: &tone.Result{...}}
//	p := &mock.Provider{Jobs: []*mock.Job{job}}
//	...
//	close(job.Release) // job "1" now polls as done
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/ajaytemal-source/Resonate/pkg/provider/tone"
)

// Compile-time assertion that Provider implements tone.Provider.
var _ tone.Provider = (*Provider)(nil)

// Job scripts the lifecycle of one submitted analysis.
type Job struct {
	// ID is returned by Submit.
	ID string

	// Release gates completion: Poll reports pending until it is closed.
	// A nil Release means the job is immediately done.
	Release chan struct{}

	// Fail makes Poll report a terminal failure once released.
	Fail bool

	// Result is returned by FetchResult once the job is done.
	Result *tone.Result

	// FetchErr, if non-nil, is returned by FetchResult instead of Result.
	FetchErr error
}

// released reports whether the job has completed.
func (j *Job) released() bool {
	if j.Release == nil {
		return true
	}
	select {
	case <-j.Release:
		return true
	default:
		return false
	}
}

// Provider is a mock implementation of tone.Provider.
type Provider struct {
	mu sync.Mutex

	// Jobs is the sequence handed out by successive Submit calls.
	Jobs []*Job

	// SubmitErr, if non-nil, is returned as the error from Submit.
	SubmitErr error

	// MetaValue is returned by Meta.
	MetaValue tone.Meta

	// SubmitCount is the number of Submit calls observed.
	SubmitCount int

	byID map[string]*Job
}

// Submit hands out the next scripted job.
func (p *Provider) Submit(ctx context.Context, wav []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SubmitCount++
	if p.SubmitErr != nil {
		return "", p.SubmitErr
	}
	if len(p.Jobs) == 0 {
		return "", errors.New("mock: no scripted jobs remaining")
	}
	job := p.Jobs[0]
	p.Jobs = p.Jobs[1:]
	if p.byID == nil {
		p.byID = make(map[string]*Job)
	}
	p.byID[job.ID] = job
	return job.ID, nil
}

// Poll reports pending until the job's Release channel is closed.
func (p *Provider) Poll(ctx context.Context, jobID string) (tone.Status, error) {
	job, err := p.lookup(jobID)
	if err != nil {
		return tone.StatusFailed, err
	}
	if !job.released() {
		return tone.StatusPending, nil
	}
	if job.Fail {
		return tone.StatusFailed, nil
	}
	return tone.StatusDone, nil
}

// FetchResult returns the scripted result for a done job.
func (p *Provider) FetchResult(ctx context.Context, jobID string) (*tone.Result, error) {
	job, err := p.lookup(jobID)
	if err != nil {
		return nil, err
	}
	if job.FetchErr != nil {
		return nil, job.FetchErr
	}
	return job.Result, nil
}

// Meta returns MetaValue.
func (p *Provider) Meta() tone.Meta {
	return p.MetaValue
}

func (p *Provider) lookup(jobID string) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.byID[jobID]
	if !ok {
		return nil, errors.New("mock: unknown job " + jobID)
	}
	return job, nil
}
