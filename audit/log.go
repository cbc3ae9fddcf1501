package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/dashAuth/storage"
)

// Config holds audit log tuning parameters.
type Config struct {
	// Key is the storage key the event sequence lives under.
	Key string
	// Retention is the maximum event age; older events are pruned by
	// CleanupOldEvents.
	Retention time.Duration
	// MaxEvents caps the stored sequence; the oldest events are evicted
	// first, independent of age.
	MaxEvents int
	// RiskWindow bounds the recent-failure history consulted by risk
	// scoring. Matches the rate limiter's rolling window.
	RiskWindow time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Log is the append-only audit event store.
type Log struct {
	mu         sync.Mutex
	kv         storage.KV
	events     []Event
	loaded     bool
	cfg        Config
	logger     *zap.Logger
	dispatcher *Dispatcher
}

// NewLog creates an audit [Log] over kv. logger receives persistence
// failures (fallback channel); dispatcher, when non-nil, gets a copy of
// every recorded event. Both may be nil.
func NewLog(kv storage.KV, cfg Config, logger *zap.Logger, dispatcher *Dispatcher) *Log {
	if cfg.Key == "" {
		cfg.Key = "dashauth:audit"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 1000
	}
	if cfg.RiskWindow <= 0 {
		cfg.RiskWindow = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		kv:         kv,
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Record appends event, assigning ID, timestamp, and risk level.
// Fire-and-forget: persistence failures go to the fallback logger, never to
// the caller.
func (l *Log) Record(ctx context.Context, event Event) {
	l.mu.Lock()
	l.load(ctx)

	now := l.cfg.Now()
	event.ID = uuid.NewString()
	event.Timestamp = now
	event.RiskLevel = Score(event.Type, event.IdentityKey, l.events, now, l.cfg.RiskWindow)

	l.events = append(l.events, event)
	if overflow := len(l.events) - l.cfg.MaxEvents; overflow > 0 {
		l.events = append(l.events[:0], l.events[overflow:]...)
	}
	l.persist(ctx)
	l.mu.Unlock()

	l.dispatcher.Emit(ctx, event)
}

// Query returns matching events in insertion order.
func (l *Log) Query(ctx context.Context, f Filter) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	var out []Event
	for _, e := range l.events {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// CleanupOldEvents removes every event older than the retention window and
// returns how many were removed. Idempotent; events recorded after a pass
// started are never removed by it.
func (l *Log) CleanupOldEvents(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	cutoff := l.cfg.Now().Add(-l.cfg.Retention)
	kept := l.events[:0]
	removed := 0
	for _, e := range l.events {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}

	l.events = kept
	l.persist(ctx)
	return removed
}

// Len reports the stored event count.
func (l *Log) Len(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.load(ctx)

	return len(l.events)
}

func (l *Log) load(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	data, err := l.kv.Get(ctx, l.cfg.Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn("audit history unavailable, starting empty", zap.Error(err))
		}
		return
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		l.logger.Warn("audit history corrupt, starting empty", zap.Error(err))
		_ = l.kv.Delete(ctx, l.cfg.Key)
		return
	}
	l.events = events
}

func (l *Log) persist(ctx context.Context) {
	data, err := json.Marshal(l.events)
	if err != nil {
		l.logger.Warn("audit encode failed", zap.Error(err))
		return
	}
	if err := l.kv.Set(ctx, l.cfg.Key, data); err != nil {
		l.logger.Warn("audit persist failed", zap.Error(err))
	}
}
