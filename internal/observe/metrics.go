// Package observe provides application-wide observability primitives for
// the STT gateway: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
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

// meterName is the instrumentation scope name used for all gateway metrics.
const meterName = "github.com/hyprnote/stt-gateway"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ProviderRequestDuration tracks upstream provider call latency,
	// covering both the streaming connect phase and batch transcription.
	ProviderRequestDuration metric.Float64Histogram

	// SessionDuration tracks the wall-clock length of a finished session,
	// from accept to close.
	SessionDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// RelayStateTransitions counts WebSocket session state-machine
	// transitions. Use with attribute:
	//   attribute.String("state", ...)
	RelayStateTransitions metric.Int64Counter

	// RoutingFailovers counts hyprnote chain failovers from one provider to
	// the next. Use with attributes:
	//   attribute.String("from", ...), attribute.String("to", ...)
	RoutingFailovers metric.Int64Counter

	// AccumulatorCorrections counts transcript corrections applied by the
	// accumulator (stitches, word-id replacements, cloud handoffs). Use
	// with attribute:
	//   attribute.String("kind", ...)
	AccumulatorCorrections metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live transcription sessions
	// across both the relay and the embedded session actor tree.
	ActiveSessions metric.Int64UpDownCounter

	// OpenCircuitBreakers tracks the number of provider circuit breakers
	// currently open.
	OpenCircuitBreakers metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for streaming-transcription and session latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ProviderRequestDuration, err = m.Float64Histogram("sttgateway.provider.request.duration",
		metric.WithDescription("Latency of upstream provider calls (stream connect or batch transcription)."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SessionDuration, err = m.Float64Histogram("sttgateway.session.duration",
		metric.WithDescription("Wall-clock length of a finished transcription session."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("sttgateway.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("sttgateway.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.RelayStateTransitions, err = m.Int64Counter("sttgateway.relay.state_transitions",
		metric.WithDescription("Total WebSocket session state-machine transitions by target state."),
	); err != nil {
		return nil, err
	}
	if met.RoutingFailovers, err = m.Int64Counter("sttgateway.routing.failovers",
		metric.WithDescription("Total hyprnote chain failovers from one provider to the next."),
	); err != nil {
		return nil, err
	}
	if met.AccumulatorCorrections, err = m.Int64Counter("sttgateway.accumulator.corrections",
		metric.WithDescription("Total transcript corrections applied by the accumulator, by kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("sttgateway.active_sessions",
		metric.WithDescription("Number of live transcription sessions."),
	); err != nil {
		return nil, err
	}
	if met.OpenCircuitBreakers, err = m.Int64UpDownCounter("sttgateway.open_circuit_breakers",
		metric.WithDescription("Number of provider circuit breakers currently open."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("sttgateway.http.request.duration",
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

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordStateTransition is a convenience method that records a relay
// session state-machine transition.
func (m *Metrics) RecordStateTransition(ctx context.Context, state string) {
	m.RelayStateTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", state)),
	)
}

// RecordFailover is a convenience method that records a hyprnote chain
// failover from one provider to the next.
func (m *Metrics) RecordFailover(ctx context.Context, from, to string) {
	m.RoutingFailovers.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}

// RecordCorrection is a convenience method that records a transcript
// correction applied by the accumulator.
func (m *Metrics) RecordCorrection(ctx context.Context, kind string) {
	m.AccumulatorCorrections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
