// Package health exposes the platform's dependency health over HTTP.
//
// This package implements a generic health checking framework used to
// monitor the AI upstreams the platform proxies. It provides interfaces
// for defining health checks, aggregating results from multiple checkers,
// and exposing health status via HTTP endpoints.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy. An
// UpstreamChecker derives health from a client's circuit breaker state:
// a closed breaker is healthy, a half-open one degraded, an open one
// unhealthy.
//
// # Basic Usage
//
//	checker := health.NewUpstreamChecker(meshyClient)
//
//	result := checker.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("meshy unavailable: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("meshy", health.NewUpstreamChecker(meshyClient))
//	agg.Register("openai-images", health.NewUpstreamChecker(imageClient))
//	agg.Register("elevenlabs", health.NewUpstreamChecker(speechClient))
//
//	// Check all components
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	// Liveness probe (for Kubernetes)
//	http.Handle("/healthz", health.LivenessHandler())
//
//	// Readiness probe with component checks
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//
//	// Detailed health status
//	http.Handle("/health", health.DetailedHandler(aggregator))
//
//	// Breaker state and statistics per upstream
//	http.Handle("/health/upstreams", health.UpstreamStatusHandler(registry))
package health
