package upstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream calls.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call
	// and no fallback is configured.
	ErrCircuitOpen = errors.New("upstream: circuit breaker is open")

	// ErrRetriesExhausted is returned when the last allowed attempt still
	// failed with a retryable outcome.
	ErrRetriesExhausted = errors.New("upstream: retries exhausted")

	// ErrBreakerTimeout is returned when the breaker-level deadline expires
	// before the inner call completes.
	ErrBreakerTimeout = errors.New("upstream: breaker timeout exceeded")

	// ErrClientClosed is returned by Fetch after Shutdown.
	ErrClientClosed = errors.New("upstream: client is closed")
)

// RetriesExhaustedError reports a logical request whose final attempt still
// failed with a retryable status or transport error.
type RetriesExhaustedError struct {
	// Attempts is the number of physical attempts made.
	Attempts int

	// LastStatus is the status code of the final attempt, or 0 if the
	// final attempt failed before receiving a response.
	LastStatus int

	// LastErr is the transport error of the final attempt, if any.
	LastErr error
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("upstream: retries exhausted after %d attempts, last status %d", e.Attempts, e.LastStatus)
	}
	if e.LastErr != nil {
		return fmt.Sprintf("upstream: retries exhausted after %d attempts: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("upstream: retries exhausted after %d attempts", e.Attempts)
}

// Unwrap returns the final attempt's transport error, if any.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.LastErr
}

// Is reports whether target is ErrRetriesExhausted.
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}
