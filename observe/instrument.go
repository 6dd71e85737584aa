package observe

import (
	"context"
	"time"

	"github.com/hyperforge-ai/forgekit/upstream"
)

// Instrumentor wires upstream clients into tracing, metrics and logging.
//
// Contract:
//   - Concurrency: all methods and returned hooks are safe for concurrent use.
//   - Context: Fetch propagates context through the client span.
//   - Errors: errors from the wrapped client are recorded and propagated unchanged.
type Instrumentor struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewInstrumentor creates an Instrumentor from the given components.
func NewInstrumentor(tracer Tracer, metrics Metrics, logger Logger) *Instrumentor {
	return &Instrumentor{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// InstrumentorFromObserver creates an Instrumentor from an Observer.
// This is a convenience function for common use cases.
func InstrumentorFromObserver(obs Observer) (*Instrumentor, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewInstrumentor(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Hooks returns client hooks that emit metrics and logs for retries,
// breaker transitions and completed fetches. Pass the result to
// upstream.WithHooks when constructing the client.
func (i *Instrumentor) Hooks() upstream.Hooks {
	return upstream.Hooks{
		OnRetry: func(name string, attempt int, delay time.Duration, status int, cause error) {
			ctx := context.Background()
			i.metrics.RecordRetry(ctx, name, attempt)

			fields := []Field{
				{Key: "attempt", Value: attempt},
				{Key: "delay_ms", Value: float64(delay.Milliseconds())},
			}
			if status != 0 {
				fields = append(fields, Field{Key: "status", Value: status})
			}
			if cause != nil {
				fields = append(fields, Field{Key: "error", Value: cause.Error()})
			}
			i.logger.WithUpstream(CallMeta{Upstream: name}).Warn(ctx, "retrying upstream call", fields...)
		},

		OnTransition: func(name string, tr upstream.Transition) {
			ctx := context.Background()
			i.metrics.RecordTransition(ctx, name, tr.From.String(), tr.To.String())

			logger := i.logger.WithUpstream(CallMeta{Upstream: name})
			fields := []Field{
				{Key: "from", Value: tr.From.String()},
				{Key: "to", Value: tr.To.String()},
			}
			switch tr.To {
			case upstream.StateOpen:
				logger.Error(ctx, "circuit breaker opened", fields...)
			case upstream.StateClosed:
				logger.Info(ctx, "circuit breaker closed", fields...)
			default:
				logger.Warn(ctx, "circuit breaker half-open", fields...)
			}
		},

		OnResult: func(ctx context.Context, name string, resp *upstream.Response, duration time.Duration, err error) {
			meta := CallMeta{Upstream: name}
			status, attempts, fallback := 0, 1, false
			if resp != nil {
				status, fallback = resp.StatusCode, resp.Fallback
				if resp.Attempts > 0 {
					attempts = resp.Attempts
				}
			}
			i.metrics.RecordFetch(ctx, meta, status, attempts, fallback, duration, err)

			logger := i.logger.WithUpstream(meta)
			fields := []Field{
				{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			}
			if status != 0 {
				fields = append(fields, Field{Key: "status", Value: status})
			}
			if fallback {
				fields = append(fields, Field{Key: "fallback", Value: true})
			}
			if err != nil {
				fields = append(fields, Field{Key: "error", Value: err.Error()})
				logger.Error(ctx, "upstream fetch failed", fields...)
			} else {
				logger.Debug(ctx, "upstream fetch completed", fields...)
			}
		},
	}
}

// Fetch performs an instrumented fetch: a client span wraps the whole
// logical request, retries included.
func (i *Instrumentor) Fetch(ctx context.Context, client *upstream.Client, meta CallMeta, target string, opts *upstream.RequestOptions) (*upstream.Response, error) {
	if meta.Upstream == "" {
		meta.Upstream = client.Name()
	}
	if meta.Target == "" {
		meta.Target = target
	}
	if meta.Method == "" && opts != nil {
		meta.Method = opts.Method
	}

	ctx, span := i.tracer.StartSpan(ctx, meta)
	resp, err := client.Fetch(ctx, target, opts)
	i.tracer.EndSpan(span, err)
	return resp, err
}
