// Package ratelimit implements a fixed-window request limiter used in front
// of the login and generation endpoints. Counters live in a pluggable Store
// so production traffic shares state through Redis while tests run in memory.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("ratelimit: invalid config")

// Config defines one fixed window.
type Config struct {
	Limit  int           // maximum requests per window
	Window time.Duration // window length
}

func (c Config) validate() error {
	if c.Limit <= 0 || c.Window <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result reports the outcome of a limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next request.
// Returns 0 if the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Store persists window counters.
type Store interface {
	// Incr increments the counter for key in its current window and returns
	// the post-increment count plus the window expiry.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter checks requests against a fixed window.
type Limiter struct {
	store  Store
	config Config
}

// New creates a Limiter with the given store and config.
func New(store Store, config Config) (*Limiter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, config: config}, nil
}

// Allow consumes one request slot for key.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.config.Window)
	if err != nil {
		return nil, err
	}

	remaining := l.config.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(l.config.Limit),
		Limit:     l.config.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
