// Package resilience wraps the postgres and NATS calls of the service in
// capped exponential retries and a circuit breaker per operation.
package resilience

import "time"

// Operation names shared by the adapters; breaker states are keyed by them.
const (
	OpSaveRun = "postgres.save_validation_run"
	OpGetRun  = "postgres.get_validation_run"
	OpPublish = "nats.publish"
)

// Policy tunes one operation. Zero fields fall back to the shared settings.
type Policy struct {
	MaxAttempts int
	SkipBreaker bool
}

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	Operations map[string]Policy
}

// DefaultConfig retries run lookups once and result publication harder than
// the shared budget: a run is already stored when its result is published.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,

		Operations: map[string]Policy{
			OpGetRun:  {MaxAttempts: 2},
			OpPublish: {MaxAttempts: 5},
		},
	}
}

// attempts returns the retry budget of operation.
func (c Config) attempts(operation string) int {
	if p, ok := c.Operations[operation]; ok && p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return c.RetryMaxAttempts
}

func (c Config) breakerFor(operation string) bool {
	return c.BreakerEnabled && !c.Operations[operation].SkipBreaker
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	ops := make(map[string]Policy, len(c.Operations))
	for name, p := range c.Operations {
		if p.MaxAttempts < 0 {
			p.MaxAttempts = 0
		}
		ops[name] = p
	}
	out.Operations = ops

	return out
}
