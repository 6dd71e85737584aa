// Package cache stores recent successful upstream responses.
//
// It provides a Cache interface with a memory implementation, SHA-256-based
// request key derivation, and TTL policies that decide which responses are
// worth keeping. Its main consumer is the upstream client's stale-on-open
// fallback, which replays the last good response while a dependency is
// unavailable.
package cache
