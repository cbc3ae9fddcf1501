package dashauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/dashAuth/audit"
	"github.com/MrEthical07/dashAuth/ratelimit"
	"github.com/MrEthical07/dashAuth/session"
	"github.com/MrEthical07/dashAuth/storage"
	"github.com/MrEthical07/dashAuth/transport"
)

// ErrBuilderReused is returned when Build is called twice on one Builder.
var ErrBuilderReused = errors.New("builder already used")

// Builder wires the subsystem together. Construction is allocation-only;
// no I/O happens until the first Service call.
type Builder struct {
	config     Config
	kv         storage.KV
	backend    Backend
	httpClient *http.Client
	auditSink  audit.Sink
	logger     *zap.Logger
	now        func() time.Time
	built      bool
}

// New creates a [Builder] seeded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the durable key-value backend shared by the session,
// rate-limit, and audit stores. Defaults to an in-memory store.
func (b *Builder) WithStorage(kv storage.KV) *Builder {
	b.kv = kv
	return b
}

// WithBackend injects the network boundary directly, bypassing the HTTP
// transport. Intended for tests and embedded deployments.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithHTTPClient sets the HTTP client used by the default transport.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuditSink streams every recorded audit event to sink through the
// asynchronous dispatcher.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the fallback logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the clock, for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and assembles the [Service].
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, ErrBuilderReused
	}
	b.built = true

	cfg := b.config
	cfg.normalize()
	if len(cfg.Domain.ApprovedDomains) == 0 {
		return nil, errConfigNoApprovedDomains
	}
	if b.backend == nil && cfg.Transport.BaseURL == "" {
		return nil, errConfigNoBackend
	}

	kv := b.kv
	if kv == nil {
		kv = storage.NewMemory()
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	backend := b.backend
	if backend == nil {
		backend = transport.NewClient(cfg.Transport.BaseURL, b.httpClient)
	}

	var dispatcher *audit.Dispatcher
	if b.auditSink != nil {
		dispatcher = audit.NewDispatcher(audit.DispatcherConfig{
			BufferSize: cfg.Audit.DispatchBuffer,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink)
	}

	auditLog := audit.NewLog(kv, audit.Config{
		Retention:  cfg.Audit.Retention,
		MaxEvents:  cfg.Audit.MaxEvents,
		RiskWindow: cfg.RateLimit.Window,
		Now:        now,
	}, logger, dispatcher)

	sessions := session.NewStore(kv, session.Config{
		RefreshThreshold: cfg.Session.RefreshThreshold,
		Now:              now,
		OnTamper: func(detail string) {
			auditLog.Record(context.Background(), audit.Event{
				Type:   audit.TypeSessionTampered,
				Detail: detail,
			})
		},
	})

	limiter := ratelimit.New(kv, ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Lockout:     cfg.RateLimit.Lockout,
		Now:         now,
		Warn: func(msg string, err error) {
			logger.Warn(msg, zap.Error(err))
		},
	})

	return &Service{
		config:     cfg,
		backend:    backend,
		sessions:   sessions,
		limiter:    limiter,
		auditLog:   auditLog,
		dispatcher: dispatcher,
		logger:     logger,
		now:        now,
	}, nil
}
