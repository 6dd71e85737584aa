package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records upstream call telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one completed logical fetch.
	RecordFetch(ctx context.Context, meta CallMeta, status int, attempts int, fallback bool, duration time.Duration, err error)

	// RecordRetry records one retry attempt against an upstream.
	RecordRetry(ctx context.Context, upstream string, attempt int)

	// RecordTransition records a circuit breaker state change.
	RecordTransition(ctx context.Context, upstream, from, to string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	fallbackHits metric.Int64Counter
	retryCount   metric.Int64Counter
	transitions  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"upstream.fetch.total",
		metric.WithDescription("Total number of logical upstream fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"upstream.fetch.errors",
		metric.WithDescription("Total number of failed upstream fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	fallbackHits, err := meter.Int64Counter(
		"upstream.fetch.fallbacks",
		metric.WithDescription("Fetches answered by a fallback instead of the upstream"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"upstream.retry.attempts",
		metric.WithDescription("Retry attempts against upstreams"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"upstream.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"upstream.fetch.duration_ms",
		metric.WithDescription("Logical fetch duration in milliseconds, retries included"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		fallbackHits: fallbackHits,
		retryCount:   retryCount,
		transitions:  transitions,
		durationHist: durationHist,
	}, nil
}

// RecordFetch records metrics for one completed logical fetch.
func (m *metricsImpl) RecordFetch(ctx context.Context, meta CallMeta, status int, attempts int, fallback bool, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("upstream.name", meta.Upstream),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("upstream.operation", meta.Operation))
	}
	if status != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	if fallback {
		m.fallbackHits.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRetry increments the retry counter.
func (m *metricsImpl) RecordRetry(ctx context.Context, upstream string, attempt int) {
	m.retryCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("upstream.name", upstream),
		attribute.Int("upstream.retry.attempt", attempt),
	))
}

// RecordTransition increments the transition counter.
func (m *metricsImpl) RecordTransition(ctx context.Context, upstream, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("upstream.name", upstream),
		attribute.String("upstream.breaker.from", from),
		attribute.String("upstream.breaker.to", to),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordFetch(ctx context.Context, meta CallMeta, status int, attempts int, fallback bool, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordRetry(ctx context.Context, upstream string, attempt int) {}

func (m *noopMetrics) RecordTransition(ctx context.Context, upstream, from, to string) {}
