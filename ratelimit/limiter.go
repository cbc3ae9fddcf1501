package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/dashAuth/storage"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	// Window is the rolling duration over which failures accumulate.
	Window time.Duration
	// MaxAttempts is the failure count that triggers a lockout.
	MaxAttempts int
	// Lockout is how long an identity stays locked once triggered.
	Lockout time.Duration
	// Key is the storage key the counter map is mirrored under.
	Key string
	// Warn, when set, receives persistence failures. Never blocks flows.
	Warn func(msg string, err error)
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Decision is the outcome of a [Limiter.Check] call.
type Decision struct {
	Allowed bool
	// RetryAfter is the remaining lockout time. Zero when Allowed.
	RetryAfter time.Duration
}

type counter struct {
	Failures    int       `json:"failures"`
	WindowStart time.Time `json:"window_start"`
	LockedUntil time.Time `json:"locked_until,omitempty"`
}

// Limiter enforces per-identity login attempt budgets. All methods are safe
// for concurrent use; mutations never perform I/O beyond mirroring the
// counter map to storage.
type Limiter struct {
	mu       sync.Mutex
	kv       storage.KV
	counters map[string]counter
	loaded   bool
	cfg      Config
}

// New creates a [Limiter] persisting its counters through kv.
func New(kv storage.KV, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 15 * time.Minute
	}
	if cfg.Key == "" {
		cfg.Key = "dashauth:ratelimit"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		kv:       kv,
		counters: make(map[string]counter),
		cfg:      cfg,
	}
}

// Check reports whether a login attempt for identityKey may proceed.
// While locked it returns the remaining lockout time on every call.
func (l *Limiter) Check(ctx context.Context, identityKey string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	c, ok := l.counters[identityKey]
	if !ok {
		return Decision{Allowed: true}
	}

	now := l.cfg.Now()
	if now.Before(c.LockedUntil) {
		return Decision{RetryAfter: c.LockedUntil.Sub(now)}
	}
	return Decision{Allowed: true}
}

// RecordFailure counts a failed attempt for identityKey and returns the
// updated failure count within the current window. A window that has
// expired since its first failure resets before counting.
func (l *Limiter) RecordFailure(ctx context.Context, identityKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	now := l.cfg.Now()
	c := l.counters[identityKey]
	if c.WindowStart.IsZero() || now.Sub(c.WindowStart) > l.cfg.Window {
		c = counter{WindowStart: now}
	}

	c.Failures++
	if c.Failures >= l.cfg.MaxAttempts {
		c.LockedUntil = now.Add(l.cfg.Lockout)
	}
	l.counters[identityKey] = c
	l.persist(ctx)

	return c.Failures
}

// RecordSuccess clears the counter for identityKey entirely.
func (l *Limiter) RecordSuccess(ctx context.Context, identityKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	if _, ok := l.counters[identityKey]; !ok {
		return
	}
	delete(l.counters, identityKey)
	l.persist(ctx)
}

// Attempts returns the failure count for identityKey within the current
// window. Expired windows report zero.
func (l *Limiter) Attempts(ctx context.Context, identityKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	c, ok := l.counters[identityKey]
	if !ok {
		return 0
	}
	if l.cfg.Now().Sub(c.WindowStart) > l.cfg.Window {
		return 0
	}
	return c.Failures
}

// load hydrates the counter map from storage once. A corrupt stored map is
// discarded; counters restart empty rather than failing the login path.
func (l *Limiter) load(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	data, err := l.kv.Get(ctx, l.cfg.Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.warn("rate limit counters unavailable, starting empty", err)
		}
		return
	}

	var counters map[string]counter
	if err := json.Unmarshal(data, &counters); err != nil {
		l.warn("rate limit counters corrupt, starting empty", err)
		_ = l.kv.Delete(ctx, l.cfg.Key)
		return
	}
	l.counters = counters
}

func (l *Limiter) persist(ctx context.Context) {
	data, err := json.Marshal(l.counters)
	if err != nil {
		l.warn("rate limit counters encode failed", err)
		return
	}
	if err := l.kv.Set(ctx, l.cfg.Key, data); err != nil {
		l.warn("rate limit counters persist failed", err)
	}
}

func (l *Limiter) warn(msg string, err error) {
	if l.cfg.Warn != nil {
		l.cfg.Warn(msg, err)
	}
}
