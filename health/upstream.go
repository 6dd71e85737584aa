package health

import (
	"context"
	"fmt"

	"github.com/hyperforge-ai/forgekit/upstream"
)

// UpstreamChecker derives health from a client's circuit breaker state.
// No probe request is sent; the breaker already embodies the recent call
// history, so checking it is free and safe to poll aggressively.
type UpstreamChecker struct {
	client *upstream.Client
}

// NewUpstreamChecker creates a checker for one upstream client.
func NewUpstreamChecker(client *upstream.Client) *UpstreamChecker {
	return &UpstreamChecker{client: client}
}

// Name returns the upstream name.
func (u *UpstreamChecker) Name() string {
	return u.client.Name()
}

// Check maps the breaker state to a health status.
func (u *UpstreamChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	status := u.client.Status()
	details := map[string]any{
		"state":     status.State.String(),
		"successes": status.Stats.Successes,
		"failures":  status.Stats.Failures,
		"timeouts":  status.Stats.Timeouts,
		"rejects":   status.Stats.Rejects,
	}
	if !status.Stats.LastTransition.IsZero() {
		details["last_transition"] = status.Stats.LastTransition
	}

	switch status.State {
	case upstream.StateOpen:
		return Unhealthy(
			fmt.Sprintf("circuit breaker open for %s", status.Name),
			ErrCheckFailed,
		).WithDetails(details)
	case upstream.StateHalfOpen:
		return Degraded(
			fmt.Sprintf("circuit breaker probing %s", status.Name),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("%s reachable", status.Name),
		).WithDetails(details)
	}
}

// Ensure UpstreamChecker implements Checker.
var _ Checker = (*UpstreamChecker)(nil)
