package creds

import (
	"context"
	"net/http"
	"strings"
)

// Credential stamps authentication onto an outbound request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Apply must not mutate the request when it returns an error.
type Credential interface {
	// Apply adds the credential to req.
	Apply(ctx context.Context, req *http.Request) error
}

// APIKey sends a static key in a configurable header.
type APIKey struct {
	// Header is the header name. Default: "X-API-Key"
	Header string

	// Key is the API key value.
	Key string
}

// NewAPIKey creates an API key credential.
func NewAPIKey(header, key string) (*APIKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingKey
	}
	if header == "" {
		header = "X-API-Key"
	}
	return &APIKey{Header: header, Key: key}, nil
}

// Apply sets the API key header.
func (a *APIKey) Apply(_ context.Context, req *http.Request) error {
	if a.Key == "" {
		return ErrMissingKey
	}
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, a.Key)
	return nil
}

// Bearer sends a static token as "Authorization: Bearer <token>".
type Bearer struct {
	Token string
}

// NewBearer creates a bearer token credential.
func NewBearer(token string) (*Bearer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingKey
	}
	return &Bearer{Token: token}, nil
}

// Apply sets the Authorization header.
func (b *Bearer) Apply(_ context.Context, req *http.Request) error {
	if b.Token == "" {
		return ErrMissingKey
	}
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Chain applies multiple credentials in order. Useful for upstreams that
// need both an API key and an organization header.
type Chain []Credential

// Apply applies each credential in order, stopping at the first error.
func (c Chain) Apply(ctx context.Context, req *http.Request) error {
	for _, cred := range c {
		if cred == nil {
			continue
		}
		if err := cred.Apply(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// Header sends an arbitrary static header, for upstreams with
// nonstandard auth schemes.
type Header struct {
	Name  string
	Value string
}

// Apply sets the header.
func (h Header) Apply(_ context.Context, req *http.Request) error {
	if h.Name == "" {
		return ErrMissingKey
	}
	req.Header.Set(h.Name, h.Value)
	return nil
}

// Ensure implementations satisfy Credential.
var (
	_ Credential = (*APIKey)(nil)
	_ Credential = (*Bearer)(nil)
	_ Credential = (Chain)(nil)
	_ Credential = Header{}
)
