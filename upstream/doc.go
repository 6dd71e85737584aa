// Package upstream provides a resilient HTTP client for the third-party
// AI services the platform proxies.
//
// Every call to an image, mesh or speech generation API goes through a
// Client that composes three layers:
//
//   - Retry: transient statuses (429, 5xx) and transport errors are
//     retried with exponential backoff, each attempt under its own
//     cancellation scope. Retries are invisible to the caller.
//
//   - Circuit breaker: one sample per logical request, regardless of how
//     many physical attempts it took. Once the failure rate crosses the
//     threshold over enough samples, calls fail fast until a single
//     half-open probe proves the upstream recovered.
//
//   - Fallback: while the breaker is open, a registered fallback or the
//     last cached good response is served instead of an error.
//
// # Usage
//
//	client, err := upstream.NewClient("meshy", upstream.DefaultConfig(),
//	    upstream.WithDoer(httpClient),
//	    upstream.WithFallback(func(ctx context.Context) (*upstream.Response, error) {
//	        return &upstream.Response{StatusCode: 200, Body: placeholder}, nil
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Shutdown()
//
//	resp, err := client.Fetch(ctx, "https://api.meshy.ai/v2/text-to-3d", &upstream.RequestOptions{
//	    Method: http.MethodPost,
//	    Body:   payload,
//	})
//
// Client.Status exposes the breaker state and rolling statistics for
// health endpoints; a Registry shares named clients across handlers.
package upstream
