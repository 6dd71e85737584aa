package creds

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceTokenConfig configures a self-minted service token credential.
type ServiceTokenConfig struct {
	// Key is the HMAC signing key shared with the upstream.
	Key []byte

	// Issuer is the iss claim.
	Issuer string

	// Audience is the aud claim.
	Audience string

	// Subject is the sub claim.
	Subject string

	// TTL is the token lifetime.
	// Default: 5 minutes
	TTL time.Duration

	// RefreshMargin is how long before expiry a new token is minted.
	// Default: TTL / 4
	RefreshMargin time.Duration
}

// ServiceToken mints short-lived HS256 bearer tokens and reuses them
// until they approach expiry.
type ServiceToken struct {
	config ServiceTokenConfig
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewServiceToken creates a service token credential.
func NewServiceToken(config ServiceTokenConfig) (*ServiceToken, error) {
	if len(config.Key) == 0 {
		return nil, ErrMissingSigningKey
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.RefreshMargin <= 0 || config.RefreshMargin >= config.TTL {
		config.RefreshMargin = config.TTL / 4
	}

	return &ServiceToken{
		config: config,
		now:    time.Now,
	}, nil
}

// Apply sets "Authorization: Bearer <token>", minting a fresh token when
// the cached one is inside the refresh margin.
func (s *ServiceToken) Apply(_ context.Context, req *http.Request) error {
	token, err := s.current()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (s *ServiceToken) current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.expires.Add(-s.config.RefreshMargin)) {
		return s.token, nil
	}

	expires := now.Add(s.config.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   s.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	s.token = signed
	s.expires = expires
	return signed, nil
}

// Ensure ServiceToken satisfies Credential.
var _ Credential = (*ServiceToken)(nil)
