package upstream

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hyperforge-ai/forgekit/cache"
)

// Doer issues one physical HTTP request. *http.Client satisfies it.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: the request's context bounds the attempt; implementations
//   must return promptly once it is cancelled.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the result of one logical fetch. The body is fully read so
// the value outlives the attempt's cancellation scope.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Attempts is the number of physical attempts the fetch took.
	Attempts int

	// Fallback is true when the response was served by the configured
	// fallback instead of the upstream.
	Fallback bool
}

// RequestOptions describes one logical request. The body is replayed
// byte-for-byte on every physical attempt.
type RequestOptions struct {
	Method string // default: GET
	Header http.Header
	Body   []byte
}

// FallbackFunc produces a substitute response while the breaker is open.
type FallbackFunc func(ctx context.Context) (*Response, error)

// RequestDecorator mutates a request before it is issued, once per
// physical attempt. Credential injection hooks in here.
type RequestDecorator func(ctx context.Context, req *http.Request) error

// Hooks are optional observation points. All hooks may be called
// concurrently and must not call back into the client.
type Hooks struct {
	// OnRetry fires before each backoff sleep. status is zero when the
	// attempt failed with a transport error instead of a response.
	OnRetry func(name string, attempt int, delay time.Duration, status int, cause error)

	// OnTransition fires on each breaker state change.
	OnTransition func(name string, tr Transition)

	// OnResult fires once per completed fetch, fallback responses included.
	OnResult func(ctx context.Context, name string, resp *Response, duration time.Duration, err error)
}

// Status is a read-only snapshot of a client's health.
type Status struct {
	Name  string `json:"name"`
	State State  `json:"state"`
	Stats Stats  `json:"stats"`
}

// Client wraps one named upstream with retry, a circuit breaker, and an
// optional fallback. All methods are safe for concurrent use.
type Client struct {
	name      string
	baseURL   *url.URL
	doer      Doer
	retry     *retryer
	breaker   *breaker
	limiter   *rate.Limiter
	sem       *semaphore.Weighted
	decorator RequestDecorator
	fallback  FallbackFunc
	store     *cachedFallback
	hooks     Hooks
	closed    atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the HTTP primitive. Default: http.DefaultClient.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithFallback registers a substitute response for calls rejected while
// the breaker is open.
func WithFallback(fn FallbackFunc) Option {
	return func(c *Client) { c.fallback = fn }
}

// WithDecorator sets a request decorator, applied once per attempt.
func WithDecorator(d RequestDecorator) Option {
	return func(c *Client) { c.decorator = d }
}

// WithCachedFallback records good responses in store and replays the last
// one for the same request while the breaker is open. Takes precedence
// over WithFallback when a stale response exists.
func WithCachedFallback(store cache.Cache, policy cache.Policy) Option {
	return func(c *Client) { c.store = newCachedFallback(c.name, store, policy) }
}

// WithRateLimit paces requests to the upstream. Zero disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithMaxConcurrent caps in-flight requests. Zero disables the cap.
func WithMaxConcurrent(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithHooks sets observation hooks.
func WithHooks(h Hooks) Option {
	return func(c *Client) { c.hooks = h }
}

// NewClient creates a client for one named upstream.
func NewClient(name string, config Config, opts ...Option) (*Client, error) {
	config = config.normalized()

	c := &Client{
		name: name,
		doer: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	if config.BaseURL != "" {
		base, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, err
		}
		c.baseURL = base
	}

	c.retry = newRetryer(config.Retry, c.doer)
	c.retry.onRetry = c.fireRetryHook

	c.breaker = newBreaker(config.Breaker, func(tr Transition) {
		if c.hooks.OnTransition != nil {
			c.hooks.OnTransition(c.name, tr)
		}
	})

	return c, nil
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// Fetch performs one logical request against the upstream. target may be
// absolute or relative to the configured base URL. Retries are invisible
// to the caller; only persistent failure surfaces as an error.
func (c *Client) Fetch(ctx context.Context, target string, opts *RequestOptions) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	start := time.Now()
	resp, err := c.fetch(ctx, target, opts)
	if c.hooks.OnResult != nil {
		c.hooks.OnResult(ctx, c.name, resp, time.Since(start), err)
	}
	return resp, err
}

func (c *Client) fetch(ctx context.Context, target string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	u, err := c.resolve(target)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)
	}

	resp, err := c.breaker.fire(ctx, func(ctx context.Context) (*Response, error) {
		return c.retry.do(ctx, func(actx context.Context) (*http.Request, error) {
			return c.buildRequest(actx, u, opts)
		})
	})

	if err == nil {
		if c.store != nil {
			c.store.record(ctx, method(opts), u, opts.Body, resp)
		}
		return resp, nil
	}

	if isRejection(err) {
		if c.store != nil {
			if stale, ok := c.store.lookup(ctx, method(opts), u, opts.Body); ok {
				return stale, nil
			}
		}
		if c.fallback != nil {
			fb, fbErr := c.fallback(ctx)
			if fbErr != nil {
				return nil, fbErr
			}
			fb.Fallback = true
			return fb, nil
		}
	}

	return resp, err
}

func method(opts *RequestOptions) string {
	if opts.Method == "" {
		return http.MethodGet
	}
	return opts.Method
}

func (c *Client) buildRequest(ctx context.Context, u string, opts *RequestOptions) (*http.Request, error) {
	var body *bytes.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method(opts), u, body)
	if err != nil {
		return nil, err
	}

	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if c.decorator != nil {
		if err := c.decorator(ctx, req); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func (c *Client) resolve(target string) (string, error) {
	if c.baseURL == nil || strings.Contains(target, "://") {
		return target, nil
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Status returns a snapshot of the breaker state and statistics. Safe to
// call concurrently from any number of observers.
func (c *Client) Status() Status {
	state, stats := c.breaker.snapshot()
	return Status{
		Name:  c.name,
		State: state,
		Stats: stats,
	}
}

// Shutdown makes subsequent Fetch calls fail with ErrClientClosed.
// In-flight calls run to completion. Idempotent and safe to call
// concurrently with Fetch.
func (c *Client) Shutdown() {
	c.closed.Store(true)
}

func (c *Client) fireRetryHook(attempt int, delay time.Duration, status int, cause error) {
	if c.hooks.OnRetry != nil {
		c.hooks.OnRetry(c.name, attempt, delay, status, cause)
	}
}

// isRejection reports whether err is a fast-fail rejection that fallback
// should absorb, as opposed to a terminal failure of a call that reached
// the upstream.
func isRejection(err error) bool {
	return err == ErrCircuitOpen
}
