package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hyperforge-ai/forgekit/cache"
)

// cachedFallback records good responses and replays the most recent one
// for the same request while the breaker is open (stale-on-open). A stale
// generated asset beats a hard failure for most of the platform's flows.
type cachedFallback struct {
	name   string
	cache  cache.Cache
	keyer  cache.Keyer
	policy cache.Policy
}

// cachedResponse is the stored form of a Response.
type cachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body,omitempty"`
}

func newCachedFallback(name string, c cache.Cache, policy cache.Policy) *cachedFallback {
	return &cachedFallback{
		name:   name,
		cache:  c,
		keyer:  cache.NewRequestKeyer(),
		policy: policy,
	}
}

// record stores a cacheable response. Best effort: serialization or store
// failures are ignored, the response has already been delivered.
func (f *cachedFallback) record(ctx context.Context, method, target string, body []byte, resp *Response) {
	if resp == nil || !f.policy.ShouldCache() || !f.policy.Cacheable(resp.StatusCode) {
		return
	}

	data, err := json.Marshal(cachedResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	})
	if err != nil {
		return
	}

	key := f.keyer.Key(f.name, method, target, body)
	_ = f.cache.Set(ctx, key, data, f.policy.EffectiveTTL(0))
}

// lookup returns the stored response for the same request, if any.
func (f *cachedFallback) lookup(ctx context.Context, method, target string, body []byte) (*Response, bool) {
	key := f.keyer.Key(f.name, method, target, body)
	data, ok := f.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var stored cachedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false
	}

	return &Response{
		StatusCode: stored.StatusCode,
		Header:     stored.Header,
		Body:       stored.Body,
		Fallback:   true,
	}, true
}
