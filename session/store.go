package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/dashAuth/storage"
)

// schemaVersion guards the stored envelope. Bumping it invalidates older
// records, which Load then treats as absent.
const schemaVersion = 1

// ErrInvalidRecord is returned by Save when the record fails schema checks.
var ErrInvalidRecord = errors.New("session: invalid record")

// Config holds session store tuning parameters.
type Config struct {
	// Key is the storage key the single record lives under.
	Key string
	// RefreshThreshold is the lead time before expiry at which a session
	// should be proactively renewed.
	RefreshThreshold time.Duration
	// OnTamper, when set, is invoked after a malformed stored record has
	// been cleared. It must not call back into the store.
	OnTamper func(detail string)
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type envelope struct {
	Version int     `json:"version"`
	Record  *Record `json:"record"`
}

// Store persists at most one [Record] in durable key-value storage.
type Store struct {
	kv        storage.KV
	key       string
	threshold time.Duration
	onTamper  func(string)
	now       func() time.Time
}

// NewStore creates a session [Store] over the given KV backend.
func NewStore(kv storage.KV, cfg Config) *Store {
	if cfg.Key == "" {
		cfg.Key = "dashauth:session"
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		kv:        kv,
		key:       cfg.Key,
		threshold: cfg.RefreshThreshold,
		onTamper:  cfg.OnTamper,
		now:       cfg.Now,
	}
}

// Save serializes rec to storage, atomically replacing any prior record.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if !rec.Valid() {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(envelope{Version: schemaVersion, Record: rec})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	return s.kv.Set(ctx, s.key, data)
}

// Load returns the persisted record, or nil when none exists. A stored value
// that fails to decode or validate is treated as absent: it is cleared as a
// side effect and reported through the OnTamper hook, never as an error.
// A non-nil error is only returned for storage backend failures.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.discardTampered(ctx, "undecodable session payload")
		return nil, nil
	}
	if env.Version != schemaVersion || !env.Record.Valid() {
		s.discardTampered(ctx, "session record failed schema validation")
		return nil, nil
	}

	return env.Record, nil
}

// Clear removes the persisted record. Clearing an absent record is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

// IsExpired reports whether rec's access token lifetime has elapsed at now.
func (s *Store) IsExpired(rec *Record, now time.Time) bool {
	return rec.Expired(now)
}

// NeedsRefresh reports whether rec is within the refresh threshold of
// expiry. An already-expired record never needs refresh: expiry takes
// precedence and requires a full re-login.
func (s *Store) NeedsRefresh(rec *Record, now time.Time) bool {
	if rec.Expired(now) {
		return false
	}
	return !now.Before(rec.ExpiresAt.Add(-s.threshold))
}

func (s *Store) discardTampered(ctx context.Context, detail string) {
	_ = s.kv.Delete(ctx, s.key)
	if s.onTamper != nil {
		s.onTamper(detail)
	}
}
