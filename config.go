package dashauth

import (
	"errors"
	"time"
)

// Config defines the tuning surface of the subsystem. Instances are
// configured during initialization and treated as immutable afterwards.
type Config struct {
	Domain    DomainConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Audit     AuditConfig
	Transport TransportConfig
}

// DomainConfig restricts which identities are accepted as credentials.
type DomainConfig struct {
	// ApprovedDomains lists the organizational domains whose identities may
	// log in. Identities outside this set are rejected before any network
	// call. Must not be empty.
	ApprovedDomains []string
}

// RateLimitConfig tunes the local failed-attempt limiter.
type RateLimitConfig struct {
	// Window is the rolling duration over which failures accumulate.
	Window time.Duration
	// MaxAttempts is the failure count that triggers a lockout.
	MaxAttempts int
	// Lockout is how long an identity stays locked once triggered.
	Lockout time.Duration
}

// SessionConfig tunes session lifecycle behavior.
type SessionConfig struct {
	// RefreshThreshold is the lead time before expiry at which the session
	// is proactively renewed.
	RefreshThreshold time.Duration
	// DefaultTokenLifetime is assumed when the backend sends neither an
	// explicit lifetime nor a token with an exp claim.
	DefaultTokenLifetime time.Duration
	// RefreshCheckInterval is how often the Controller re-evaluates the
	// stored session while authenticated.
	RefreshCheckInterval time.Duration
}

// AuditConfig tunes the audit log and its optional sink dispatcher.
type AuditConfig struct {
	// Retention is the maximum audit event age.
	Retention time.Duration
	// MaxEvents caps the stored event sequence.
	MaxEvents int
	// DispatchBuffer sizes the asynchronous sink queue.
	DispatchBuffer int
	// DropIfFull sheds sink deliveries instead of blocking when the queue
	// is full. The persisted log is unaffected.
	DropIfFull bool
}

// TransportConfig locates the backend collaborator.
type TransportConfig struct {
	// BaseURL of the authentication endpoints, e.g. "https://api.org.example".
	// Ignored when a Backend is injected directly.
	BaseURL string
}

var (
	errConfigNoApprovedDomains = errors.New("config: at least one approved domain is required")
	errConfigNoBackend         = errors.New("config: a transport base URL or a Backend is required")
)

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			Window:      15 * time.Minute,
			MaxAttempts: 5,
			Lockout:     15 * time.Minute,
		},
		Session: SessionConfig{
			RefreshThreshold:     5 * time.Minute,
			DefaultTokenLifetime: 15 * time.Minute,
			RefreshCheckInterval: 30 * time.Second,
		},
		Audit: AuditConfig{
			Retention:      30 * 24 * time.Hour,
			MaxEvents:      1000,
			DispatchBuffer: 64,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Domain.ApprovedDomains = append([]string(nil), cfg.Domain.ApprovedDomains...)
	return out
}

// normalize backfills zero values with defaults so a partially filled
// Config behaves sanely.
func (c *Config) normalize() {
	def := defaultConfig()
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = def.RateLimit.Window
	}
	if c.RateLimit.MaxAttempts <= 0 {
		c.RateLimit.MaxAttempts = def.RateLimit.MaxAttempts
	}
	if c.RateLimit.Lockout <= 0 {
		c.RateLimit.Lockout = def.RateLimit.Lockout
	}
	if c.Session.RefreshThreshold <= 0 {
		c.Session.RefreshThreshold = def.Session.RefreshThreshold
	}
	if c.Session.DefaultTokenLifetime <= 0 {
		c.Session.DefaultTokenLifetime = def.Session.DefaultTokenLifetime
	}
	if c.Session.RefreshCheckInterval <= 0 {
		c.Session.RefreshCheckInterval = def.Session.RefreshCheckInterval
	}
	if c.Audit.Retention <= 0 {
		c.Audit.Retention = def.Audit.Retention
	}
	if c.Audit.MaxEvents <= 0 {
		c.Audit.MaxEvents = def.Audit.MaxEvents
	}
	if c.Audit.DispatchBuffer <= 0 {
		c.Audit.DispatchBuffer = def.Audit.DispatchBuffer
	}
}
