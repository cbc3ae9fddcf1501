package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable indicates the storage backend is unreachable.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// KV is the durable key-value store backing the session, audit, and
// rate-limit stores. Implementations must be safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
