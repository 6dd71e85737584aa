package upstream

import (
	"context"
	"testing"
	"time"
)

// BenchmarkRetryConfig_Backoff measures delay computation.
func BenchmarkRetryConfig_Backoff(b *testing.B) {
	config := DefaultRetryConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = config.Backoff(i % 8)
	}
}

// BenchmarkRetryConfig_BackoffJitter measures jittered delay computation.
func BenchmarkRetryConfig_BackoffJitter(b *testing.B) {
	config := DefaultRetryConfig()
	config.Jitter = true

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = config.Backoff(i % 8)
	}
}

// BenchmarkBreaker_FireClosed measures the happy-path breaker overhead.
func BenchmarkBreaker_FireClosed(b *testing.B) {
	br := newBreaker(testBreakerConfig(), nil)
	ctx := context.Background()
	resp := &Response{StatusCode: 200}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = br.fire(ctx, func(ctx context.Context) (*Response, error) {
			return resp, nil
		})
	}
}

// BenchmarkBreaker_FireOpen measures the fast-fail rejection path.
func BenchmarkBreaker_FireOpen(b *testing.B) {
	br := newBreaker(testBreakerConfig(), nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = br.fire(ctx, func(ctx context.Context) (*Response, error) {
			return nil, errUpstreamDown
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = br.fire(ctx, func(ctx context.Context) (*Response, error) {
			return &Response{StatusCode: 200}, nil
		})
	}
}

// BenchmarkBreaker_Snapshot measures status snapshot cost.
func BenchmarkBreaker_Snapshot(b *testing.B) {
	br := newBreaker(testBreakerConfig(), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = br.snapshot()
	}
}

// BenchmarkClient_Fetch measures one logical fetch end to end with a stub
// transport.
func BenchmarkClient_Fetch(b *testing.B) {
	doer := &scriptedDoer{script: []scriptedResult{{status: 200, body: "ok"}}}
	client, err := NewClient("bench", fastConfig(), WithDoer(doer))
	if err != nil {
		b.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = client.Fetch(ctx, "http://upstream.test/v1/mesh", nil)
	}
}

// BenchmarkClient_FetchParallel measures concurrent fetch throughput.
func BenchmarkClient_FetchParallel(b *testing.B) {
	doer := &scriptedDoer{script: []scriptedResult{{status: 200, body: "ok"}}}
	config := fastConfig()
	config.Breaker.VolumeThreshold = 1 << 30
	client, err := NewClient("bench", config, WithDoer(doer))
	if err != nil {
		b.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = client.Fetch(ctx, "http://upstream.test/v1/mesh", nil)
		}
	})
}

// BenchmarkRegistry_Get measures registry lookup.
func BenchmarkRegistry_Get(b *testing.B) {
	reg := NewRegistry()
	if _, err := reg.GetOrCreate("meshy", DefaultConfig()); err != nil {
		b.Fatalf("GetOrCreate: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Get("meshy")
	}
}

// BenchmarkStats_FailureRate measures rate computation.
func BenchmarkStats_FailureRate(b *testing.B) {
	stats := Stats{Successes: 900, Failures: 100, LastTransition: time.Now()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stats.failureRate()
	}
}
