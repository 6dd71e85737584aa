package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Keyer derives deterministic cache keys from request parameters.
//
// Contract:
// - Determinism: identical requests must produce identical keys.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key for one logical request against upstream.
	Key(upstream, method, target string, body []byte) string
}

// RequestKeyer generates SHA-256 based keys over the request identity:
// method, target URL, and body bytes.
type RequestKeyer struct{}

// NewRequestKeyer creates a new request keyer.
func NewRequestKeyer() *RequestKeyer {
	return &RequestKeyer{}
}

// Key derives a deterministic cache key.
// Format: resp:<upstream>:<hash>
// where hash is the first 16 hex characters of SHA-256 over the request.
func (k *RequestKeyer) Key(upstream, method, target string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write(body)

	sum := h.Sum(nil)
	return fmt.Sprintf("resp:%s:%s", upstream, hex.EncodeToString(sum[:8]))
}

// Ensure RequestKeyer implements Keyer
var _ Keyer = (*RequestKeyer)(nil)
