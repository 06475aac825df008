// Package observe provides application-wide observability primitives for
// Resonate: OpenTelemetry metrics, structured logging helpers, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Resonate metrics.
const meterName = "github.com/ajaytemal-source/Resonate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline ---

	// TranscriptionDuration tracks the serialized speech-to-text call latency.
	TranscriptionDuration metric.Float64Histogram

	// ToneDuration tracks the full tone pipeline latency, from submission
	// through the poll loop to the fetched result.
	ToneDuration metric.Float64Histogram

	// FeedbackDuration tracks coaching-feedback generation latency.
	FeedbackDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts collaborator API calls. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// WindowsDispatched counts fired audio windows. Use with attribute:
	//   attribute.String("kind", "primary"|"secondary")
	WindowsDispatched metric.Int64Counter

	// EventsEmitted counts outgoing client events. Use with attribute:
	//   attribute.String("type", ...)
	EventsEmitted metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts collaborator failures. Use with attribute:
	//   attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live audio-stream sessions.
	ActiveSessions metric.Int64UpDownCounter

	// BackgroundTasks tracks tone and feedback tasks currently in flight
	// across all sessions. Use with attribute:
	//   attribute.String("pipeline", "tone"|"feedback")
	BackgroundTasks metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for collaborator call latencies, including the multi-second tone poll loop.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("resonate.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToneDuration, err = m.Float64Histogram("resonate.tone.duration",
		metric.WithDescription("Latency of the tone submit/poll/fetch pipeline."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FeedbackDuration, err = m.Float64Histogram("resonate.feedback.duration",
		metric.WithDescription("Latency of coaching-feedback generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("resonate.provider.requests",
		metric.WithDescription("Total collaborator API requests by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.WindowsDispatched, err = m.Int64Counter("resonate.windows.dispatched",
		metric.WithDescription("Total audio windows fired by the trigger engine, by kind."),
	); err != nil {
		return nil, err
	}
	if met.EventsEmitted, err = m.Int64Counter("resonate.events.emitted",
		metric.WithDescription("Total outgoing client events by type."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("resonate.provider.errors",
		metric.WithDescription("Total collaborator errors by kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("resonate.active_sessions",
		metric.WithDescription("Number of live audio-stream sessions."),
	); err != nil {
		return nil, err
	}
	if met.BackgroundTasks, err = m.Int64UpDownCounter("resonate.background_tasks",
		metric.WithDescription("Tone and feedback tasks currently in flight."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("resonate.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a collaborator
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a collaborator
// error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordWindow is a convenience method that records a fired window by kind.
func (m *Metrics) RecordWindow(ctx context.Context, kind string) {
	m.WindowsDispatched.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordEvent is a convenience method that records an emitted client event
// by type.
func (m *Metrics) RecordEvent(ctx context.Context, eventType string) {
	m.EventsEmitted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("type", eventType)),
	)
}
