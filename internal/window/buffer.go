// Package window implements the per-session audio window trigger engine.
//
// A [Buffer] accumulates normalized PCM samples and evaluates two overlapping
// window policies on every append:
//
//   - The secondary window is a look-ahead peek over the first
//     SecondaryDuration of the current accumulation cycle. It fires at most
//     once per primary cycle and does not consume samples. It feeds the tone
//     pipeline, which is slower and polled externally, so firing it early
//     gives its result a chance to land near the primary window's transcript.
//   - The primary window consumes PrimaryDuration of samples, retaining a
//     short OverlapDuration tail so the next transcription keeps short-range
//     acoustic context without reprocessing the full window.
//
// Buffer is not safe for concurrent use; each session owns exactly one and
// drives it from its frame handler.
package window

import (
	"errors"
	"time"
)

// Default window policy, matching the 16 kHz speech-coaching pipeline.
const (
	DefaultPrimaryDuration   = 10 * time.Second
	DefaultSecondaryDuration = 6 * time.Second
	DefaultOverlapDuration   = 100 * time.Millisecond
)

// Kind distinguishes the two window policies.
type Kind int

const (
	// KindPrimary is the consuming window dispatched to transcription.
	KindPrimary Kind = iota

	// KindSecondary is the non-consuming peek dispatched to tone analysis.
	KindSecondary
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Window is one dispatched span of audio. Samples is a copy owned by the
// caller; later appends never mutate it. StartMs/EndMs are the wall-clock
// range [now − duration, now] at trigger time, clamped at zero. Seq increases
// monotonically per kind within a session, so out-of-order pipeline
// completions can still be attributed to the window that produced them.
type Window struct {
	Kind    Kind
	Seq     int
	Samples []float32
	StartMs int64
	EndMs   int64
}

// Config holds the window policy for one session.
type Config struct {
	// SampleRate is the session sample rate in Hz. Required.
	SampleRate int

	// PrimaryDuration is the consuming window length. Default: 10 s.
	PrimaryDuration time.Duration

	// SecondaryDuration is the peek window length. Default: 6 s.
	SecondaryDuration time.Duration

	// OverlapDuration is the tail retained across primary cuts.
	// Must be shorter than PrimaryDuration. Default: 100 ms.
	OverlapDuration time.Duration

	// Now overrides the wall clock for tests. Default: time.Now.
	Now func() time.Time
}

// Buffer is the append-only, consumable sample sequence plus trigger state
// for one session.
type Buffer struct {
	samples []float32

	primarySamples   int
	secondarySamples int
	overlapSamples   int
	sampleRate       int

	secondaryFired bool
	primarySeq     int
	secondarySeq   int

	now func() time.Time
}

// New creates a Buffer from cfg, substituting defaults for zero durations.
// It returns an error when the sample rate is not positive, any duration is
// negative, or the overlap is not shorter than the primary window.
func New(cfg Config) (*Buffer, error) {
	if cfg.SampleRate <= 0 {
		return nil, errors.New("window: sample rate must be positive")
	}
	if cfg.PrimaryDuration == 0 {
		cfg.PrimaryDuration = DefaultPrimaryDuration
	}
	if cfg.SecondaryDuration == 0 {
		cfg.SecondaryDuration = DefaultSecondaryDuration
	}
	if cfg.OverlapDuration == 0 {
		cfg.OverlapDuration = DefaultOverlapDuration
	}
	if cfg.PrimaryDuration < 0 || cfg.SecondaryDuration < 0 || cfg.OverlapDuration < 0 {
		return nil, errors.New("window: durations must not be negative")
	}
	if cfg.OverlapDuration >= cfg.PrimaryDuration {
		return nil, errors.New("window: overlap must be shorter than the primary window")
	}
	if cfg.SecondaryDuration > cfg.PrimaryDuration {
		return nil, errors.New("window: secondary window must not exceed the primary window")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Buffer{
		primarySamples:   durationSamples(cfg.PrimaryDuration, cfg.SampleRate),
		secondarySamples: durationSamples(cfg.SecondaryDuration, cfg.SampleRate),
		overlapSamples:   durationSamples(cfg.OverlapDuration, cfg.SampleRate),
		sampleRate:       cfg.SampleRate,
		now:              cfg.Now,
	}, nil
}

// Append adds samples to the tail of the buffer and returns every window the
// append fired, in trigger order. Both trigger conditions are re-evaluated
// against the up-to-date buffer length until neither fires, so a burst append
// larger than one window yields the secondary peek and one or more primary
// cuts from a single call.
func (b *Buffer) Append(samples []float32) []Window {
	b.samples = append(b.samples, samples...)

	var fired []Window
	for {
		if !b.secondaryFired && len(b.samples) >= b.secondarySamples {
			fired = append(fired, b.peekSecondary())
			b.secondaryFired = true
		}
		if len(b.samples) >= b.primarySamples {
			fired = append(fired, b.cutPrimary())
			// A new accumulation cycle begins; the next secondary peek is
			// permitted once the (possibly already sufficient) buffer is
			// re-checked on the next loop iteration.
			b.secondaryFired = false
			continue
		}
		return fired
	}
}

// Len returns the number of buffered samples awaiting the next trigger.
func (b *Buffer) Len() int { return len(b.samples) }

// PrimarySamples returns the consuming window length in samples.
func (b *Buffer) PrimarySamples() int { return b.primarySamples }

// SecondarySamples returns the peek window length in samples.
func (b *Buffer) SecondarySamples() int { return b.secondarySamples }

// OverlapSamples returns the retained tail length in samples.
func (b *Buffer) OverlapSamples() int { return b.overlapSamples }

// peekSecondary copies the first secondarySamples without consuming them.
func (b *Buffer) peekSecondary() Window {
	samples := make([]float32, b.secondarySamples)
	copy(samples, b.samples)

	b.secondarySeq++
	w := Window{
		Kind:    KindSecondary,
		Seq:     b.secondarySeq,
		Samples: samples,
	}
	w.StartMs, w.EndMs = b.timeRange(b.secondarySamples)
	return w
}

// cutPrimary copies the first primarySamples and slides the buffer head
// forward, retaining the trailing overlapSamples of the cut window.
func (b *Buffer) cutPrimary() Window {
	samples := make([]float32, b.primarySamples)
	copy(samples, b.samples)

	// New head = old offset (primary − overlap) onward.
	cut := b.primarySamples - b.overlapSamples
	remaining := copy(b.samples, b.samples[cut:])
	b.samples = b.samples[:remaining]

	b.primarySeq++
	w := Window{
		Kind:    KindPrimary,
		Seq:     b.primarySeq,
		Samples: samples,
	}
	w.StartMs, w.EndMs = b.timeRange(b.primarySamples)
	return w
}

// timeRange computes the wall-clock span covered by a window of n samples
// ending now. The start is clamped at the epoch.
func (b *Buffer) timeRange(n int) (startMs, endMs int64) {
	endMs = b.now().UnixMilli()
	durationMs := int64(n) * 1000 / int64(b.sampleRate)
	startMs = endMs - durationMs
	if startMs < 0 {
		startMs = 0
	}
	return startMs, endMs
}

// durationSamples converts a duration to a sample count at the given rate.
func durationSamples(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}
