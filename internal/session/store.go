// Package session provides the revocation-backed session record store.
package session

import (
	"context"
	"errors"
	"time"
)

// Store persists session records keyed by token.
type Store interface {
	// Set writes a record with the given time-to-live.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Exists reports whether a live record exists for the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the record. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

var (
	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached or the circuit breaker is open.
	ErrStoreUnavailable = errors.New("session store unavailable")
)
