package upstream

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls pass through normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without reaching the upstream.
	StateOpen
	// StateHalfOpen means a single probe call is testing recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// Timeout is the hard deadline around the entire inner call,
	// independent of per-attempt timeouts. Default: 30 seconds
	Timeout time.Duration

	// ErrorThresholdPct is the failure rate (0-100) at or above which the
	// breaker opens once VolumeThreshold is met. Default: 50
	ErrorThresholdPct float64

	// ResetTimeout is how long the breaker stays open before allowing a
	// half-open probe. Default: 30 seconds
	ResetTimeout time.Duration

	// VolumeThreshold is the minimum number of samples before the failure
	// rate is acted on. Default: 5
	VolumeThreshold int
}

// DefaultBreakerConfig returns the breaker policy used when none is given.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Timeout:           30 * time.Second,
		ErrorThresholdPct: 50,
		ResetTimeout:      30 * time.Second,
		VolumeThreshold:   5,
	}
}

func (c BreakerConfig) normalized() BreakerConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ErrorThresholdPct <= 0 || c.ErrorThresholdPct > 100 {
		c.ErrorThresholdPct = 50
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = 5
	}
	return c
}

// Stats counts completed call outcomes since the last stats reset.
// Rejects are fast-fail rejections and never count toward the failure rate;
// otherwise an open breaker could keep itself open forever.
type Stats struct {
	Successes int64
	Failures  int64
	Timeouts  int64
	Rejects   int64

	// LastTransition is when the breaker last changed state.
	LastTransition time.Time
}

func (s Stats) samples() int64 {
	return s.Successes + s.Failures
}

func (s Stats) failureRate() float64 {
	total := s.samples()
	if total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(total) * 100
}

// Transition describes one state change, for observers.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// TransitionListener receives state changes. Listeners are called outside
// the breaker's critical section and must not call back into the breaker's
// owning client.
type TransitionListener func(Transition)

// sampleKind classifies one completed logical call for the breaker.
type sampleKind int

const (
	sampleSuccess sampleKind = iota
	sampleFailure
	sampleTimeout
	// sampleNone marks a cancelled call that never reached a terminal
	// network outcome. It leaves the counters untouched.
	sampleNone
)

// breaker is the circuit breaker state machine. All transitions happen
// under mu so that concurrent completions apply at most one transition and
// the half-open probe admission is exact.
type breaker struct {
	config BreakerConfig
	on     TransitionListener

	mu       sync.Mutex
	state    State
	stats    Stats
	openedAt time.Time
	probing  bool
}

func newBreaker(config BreakerConfig, on TransitionListener) *breaker {
	return &breaker{
		config: config.normalized(),
		on:     on,
		state:  StateClosed,
	}
}

// fire routes one logical call according to the current state, enforcing
// the breaker-level timeout around the whole inner action.
func (b *breaker) fire(ctx context.Context, inner func(ctx context.Context) (*Response, error)) (*Response, error) {
	probe, err := b.admit()
	if err != nil {
		return nil, err
	}

	tctx, cancel := context.WithTimeout(ctx, b.config.Timeout)

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)

	go func() {
		resp, err := inner(tctx)
		done <- result{resp, err}
	}()

	select {
	case res := <-done:
		cancel()
		b.record(probe, classify(ctx, res.err))
		return res.resp, res.err
	case <-tctx.Done():
		cancel()
		if ctx.Err() != nil {
			// Caller cancellation: the call never reached a terminal
			// outcome, so it must not skew the stats. The abandoned
			// inner call unwinds via tctx.
			b.record(probe, sampleNone)
			return nil, ctx.Err()
		}
		b.record(probe, sampleTimeout)
		return nil, ErrBreakerTimeout
	}
}

// classify maps an inner result to a breaker sample. Terminal error
// statuses arrive here as nil errors and count as successes: the upstream
// answered, so the infrastructure is healthy even if the application
// outcome is not.
func classify(ctx context.Context, err error) sampleKind {
	switch {
	case err == nil:
		return sampleSuccess
	case ctx.Err() != nil:
		return sampleNone
	default:
		return sampleFailure
	}
}

// admit decides whether a call may proceed. It returns probe=true when the
// caller holds the single half-open probe slot.
func (b *breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	state, tr := b.currentStateLocked()

	switch state {
	case StateOpen:
		b.stats.Rejects++
		b.mu.Unlock()
		b.notify(tr)
		return false, ErrCircuitOpen

	case StateHalfOpen:
		if b.probing {
			// A probe is already in flight; reject as if open.
			b.stats.Rejects++
			b.mu.Unlock()
			b.notify(tr)
			return false, ErrCircuitOpen
		}
		b.probing = true
		b.mu.Unlock()
		b.notify(tr)
		return true, nil

	default:
		b.mu.Unlock()
		b.notify(tr)
		return false, nil
	}
}

// record applies one completed call's outcome and any resulting transition.
func (b *breaker) record(probe bool, kind sampleKind) {
	b.mu.Lock()
	var tr *Transition

	if probe {
		b.probing = false
		switch kind {
		case sampleSuccess:
			tr = b.setStateLocked(StateClosed)
			b.stats = Stats{LastTransition: b.stats.LastTransition}
		case sampleFailure, sampleTimeout:
			if kind == sampleTimeout {
				b.stats.Timeouts++
			}
			b.stats.Failures++
			b.openedAt = time.Now()
			tr = b.setStateLocked(StateOpen)
		case sampleNone:
			// Cancelled probe: keep half-open, free the probe slot.
		}
		b.mu.Unlock()
		b.notify(tr)
		return
	}

	switch kind {
	case sampleSuccess:
		b.stats.Successes++
	case sampleFailure:
		b.stats.Failures++
	case sampleTimeout:
		b.stats.Timeouts++
		b.stats.Failures++
	case sampleNone:
		b.mu.Unlock()
		return
	}

	if b.state == StateClosed && b.shouldTripLocked() {
		b.openedAt = time.Now()
		tr = b.setStateLocked(StateOpen)
	}

	b.mu.Unlock()
	b.notify(tr)
}

func (b *breaker) shouldTripLocked() bool {
	return b.stats.samples() >= int64(b.config.VolumeThreshold) &&
		b.stats.failureRate() >= b.config.ErrorThresholdPct
}

// currentStateLocked derives the effective state, applying the lazy
// open-to-half-open transition once ResetTimeout has elapsed. Deriving the
// state on admission instead of arming a timer means there is nothing to
// tear down on shutdown and the transition is linearized with probe
// admission under mu. Callers must deliver the returned transition via
// notify after unlocking so listeners observe transitions in order.
func (b *breaker) currentStateLocked() (State, *Transition) {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.config.ResetTimeout {
		tr := b.setStateLocked(StateHalfOpen)
		b.probing = false
		return b.state, tr
	}
	return b.state, nil
}

func (b *breaker) setStateLocked(state State) *Transition {
	if b.state == state {
		return nil
	}
	tr := &Transition{From: b.state, To: state, At: time.Now()}
	b.state = state
	b.stats.LastTransition = tr.At
	return tr
}

func (b *breaker) notify(tr *Transition) {
	if tr != nil && b.on != nil {
		b.on(*tr)
	}
}

// snapshot returns the current state and statistics.
func (b *breaker) snapshot() (State, Stats) {
	b.mu.Lock()
	state, tr := b.currentStateLocked()
	stats := b.stats
	b.mu.Unlock()
	b.notify(tr)
	return state, stats
}
