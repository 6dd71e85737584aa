package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/hyperforge-ai/forgekit/creds"
	"github.com/hyperforge-ai/forgekit/secret"
)

// Config binds one upstream's retry and breaker policies.
type Config struct {
	// BaseURL, when set, resolves relative fetch targets.
	BaseURL string

	Retry   RetryConfig
	Breaker BreakerConfig
}

// DefaultConfig returns the policies used when none are given.
func DefaultConfig() Config {
	return Config{
		Retry:   DefaultRetryConfig(),
		Breaker: DefaultBreakerConfig(),
	}
}

func (c Config) normalized() Config {
	// A fully zero retry config means "use defaults". An explicit
	// MaxRetries of 0 alongside any other setting is honored as a
	// single-attempt policy.
	if c.Retry.MaxRetries == 0 && c.Retry.InitialDelay == 0 && c.Retry.MaxDelay == 0 &&
		c.Retry.Multiplier == 0 && c.Retry.RetryableStatuses == nil {
		c.Retry = DefaultRetryConfig()
	}
	return c
}

// envSpec mirrors Config for environment loading. Variables are prefixed
// per upstream, e.g. MESHY_BASE_URL, MESHY_MAX_RETRIES.
type envSpec struct {
	BaseURL           string        `envconfig:"BASE_URL"`
	MaxRetries        int           `envconfig:"MAX_RETRIES" default:"3"`
	InitialDelay      time.Duration `envconfig:"INITIAL_DELAY" default:"1s"`
	MaxDelay          time.Duration `envconfig:"MAX_DELAY" default:"30s"`
	BackoffMultiplier float64       `envconfig:"BACKOFF_MULTIPLIER" default:"2"`
	RetryableStatuses []int         `envconfig:"RETRYABLE_STATUSES"`
	AttemptTimeout    time.Duration `envconfig:"ATTEMPT_TIMEOUT"`
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"30s"`
	ErrorThresholdPct float64       `envconfig:"ERROR_THRESHOLD_PCT" default:"50"`
	ResetTimeout      time.Duration `envconfig:"RESET_TIMEOUT" default:"30s"`
	VolumeThreshold   int           `envconfig:"VOLUME_THRESHOLD" default:"5"`

	// APIKey may be a literal or a "secretref:env:VAR" reference.
	APIKey       string `envconfig:"API_KEY"`
	APIKeyHeader string `envconfig:"API_KEY_HEADER"`

	RatePerSecond float64 `envconfig:"RATE_PER_SECOND"`
	MaxConcurrent int64   `envconfig:"MAX_CONCURRENT"`
}

func (s envSpec) config() Config {
	return Config{
		BaseURL: s.BaseURL,
		Retry: RetryConfig{
			MaxRetries:        s.MaxRetries,
			InitialDelay:      s.InitialDelay,
			MaxDelay:          s.MaxDelay,
			Multiplier:        s.BackoffMultiplier,
			RetryableStatuses: s.RetryableStatuses,
			AttemptTimeout:    s.AttemptTimeout,
		},
		Breaker: BreakerConfig{
			Timeout:           s.Timeout,
			ErrorThresholdPct: s.ErrorThresholdPct,
			ResetTimeout:      s.ResetTimeout,
			VolumeThreshold:   s.VolumeThreshold,
		},
	}
}

// ConfigFromEnv loads a Config from prefix-scoped environment variables.
func ConfigFromEnv(prefix string) (Config, error) {
	var spec envSpec
	if err := envconfig.Process(prefix, &spec); err != nil {
		return Config{}, fmt.Errorf("upstream: load config for %q: %w", prefix, err)
	}
	return spec.config(), nil
}

// ClientFromEnv builds a client for name from prefix-scoped environment
// variables. API keys given as secret references are resolved through
// resolver; a nil resolver gets env-only resolution. Explicit opts win
// over environment-derived options.
func ClientFromEnv(ctx context.Context, name, prefix string, resolver *secret.Resolver, opts ...Option) (*Client, error) {
	var spec envSpec
	if err := envconfig.Process(prefix, &spec); err != nil {
		return nil, fmt.Errorf("upstream: load config for %q: %w", prefix, err)
	}

	var envOpts []Option

	if spec.APIKey != "" {
		if resolver == nil {
			resolver = secret.NewResolver(true, secret.NewEnvProvider())
		}
		key, err := resolver.ResolveValue(ctx, spec.APIKey)
		if err != nil {
			return nil, fmt.Errorf("upstream: resolve API key for %q: %w", name, err)
		}

		var cred creds.Credential
		if spec.APIKeyHeader == "" || spec.APIKeyHeader == "Authorization" {
			cred, err = creds.NewBearer(key)
		} else {
			cred, err = creds.NewAPIKey(spec.APIKeyHeader, key)
		}
		if err != nil {
			return nil, fmt.Errorf("upstream: credential for %q: %w", name, err)
		}
		envOpts = append(envOpts, WithDecorator(cred.Apply))
	}

	if spec.RatePerSecond > 0 {
		envOpts = append(envOpts, WithRateLimit(spec.RatePerSecond, int(spec.RatePerSecond)))
	}
	if spec.MaxConcurrent > 0 {
		envOpts = append(envOpts, WithMaxConcurrent(spec.MaxConcurrent))
	}

	return NewClient(name, spec.config(), append(envOpts, opts...)...)
}
