package upstream

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// DefaultRetryableStatuses are the status codes treated as transient.
var DefaultRetryableStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// RetryConfig configures bounded retry with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// 0 means exactly one attempt. Negative values are treated as 0.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	// Default: 1 second
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries and bounds each attempt's
	// cancellation scope when AttemptTimeout is unset.
	// Default: 30 seconds
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64

	// RetryableStatuses are the status codes retried as transient.
	// nil uses DefaultRetryableStatuses; an empty non-nil slice disables
	// status-based retry entirely (only transport errors are retried).
	RetryableStatuses []int

	// AttemptTimeout is the deadline applied to each physical attempt.
	// Default: MaxDelay
	AttemptTimeout time.Duration

	// Jitter adds up to 25% randomness to each delay.
	// Default: false, so the backoff schedule is exactly
	// min(InitialDelay*Multiplier^i, MaxDelay).
	Jitter bool
}

// DefaultRetryConfig returns the retry policy used when none is given:
// 3 retries, 1s initial delay, 30s cap, multiplier 2.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		Multiplier:        2.0,
		RetryableStatuses: DefaultRetryableStatuses,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2.0
	}
	if c.RetryableStatuses == nil {
		c.RetryableStatuses = DefaultRetryableStatuses
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = c.MaxDelay
	}
	return c
}

// Backoff returns the delay inserted after retry attempt i (zero-based):
// min(InitialDelay * Multiplier^i, MaxDelay), plus jitter when enabled.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	mult := math.Pow(c.Multiplier, float64(attempt))
	delay := time.Duration(float64(c.InitialDelay) * mult)
	if delay > c.MaxDelay || delay <= 0 {
		delay = c.MaxDelay
	}

	if c.Jitter {
		if q := int64(delay / 4); q > 0 {
			// #nosec G404 -- jitter is non-cryptographic timing variance.
			delay += time.Duration(rand.Int64N(q))
		}
	}

	return delay
}

// retryer performs one logical request, retrying transient failures.
type retryer struct {
	config    RetryConfig
	doer      Doer
	retryable map[int]struct{}
	onRetry   func(attempt int, delay time.Duration, status int, cause error)
}

func newRetryer(config RetryConfig, doer Doer) *retryer {
	config = config.normalized()

	retryable := make(map[int]struct{}, len(config.RetryableStatuses))
	for _, code := range config.RetryableStatuses {
		retryable[code] = struct{}{}
	}

	return &retryer{
		config:    config,
		doer:      doer,
		retryable: retryable,
	}
}

// do performs the logical request. build is invoked once per physical
// attempt so each attempt gets a fresh request and cancellation scope.
// Cancellation of ctx short-circuits pending retries immediately.
func (r *retryer) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		resp, err := r.attempt(ctx, build)
		if err == nil && !r.isRetryableStatus(resp.StatusCode) {
			// Any non-retryable status, success or not, is the final
			// answer. A 404 from an upstream is a valid response, not
			// an infrastructure failure.
			resp.Attempts = attempt + 1
			return resp, nil
		}

		if err != nil && ctx.Err() != nil {
			// Caller cancelled or timed out: stop without consuming
			// further attempts.
			return nil, ctx.Err()
		}

		lastStatus, lastErr = 0, nil
		if err != nil {
			lastErr = err
		} else {
			lastStatus = resp.StatusCode
		}

		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.config.Backoff(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt+1, delay, lastStatus, lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &RetriesExhaustedError{
		Attempts:   r.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

// attempt issues one physical request under its own timeout scope. The
// response body is fully drained so the connection can be reused and the
// result outlives the attempt's cancellation.
func (r *retryer) attempt(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	actx, cancel := context.WithTimeout(ctx, r.config.AttemptTimeout)
	defer cancel()

	req, err := build(actx)
	if err != nil {
		return nil, err
	}

	res, err := r.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       body,
	}, nil
}

func (r *retryer) isRetryableStatus(code int) bool {
	_, ok := r.retryable[code]
	return ok
}
