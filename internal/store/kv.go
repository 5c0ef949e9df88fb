package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Entry is one value to write.
type Entry struct {
	Key   string
	Value []byte
	// TTL bounds the lifetime of the entry; zero keeps it until overwritten.
	TTL time.Duration
}

// KVStore persists opaque values by key. Implementations must be safe for
// concurrent use.
type KVStore interface {
	// Get returns the value stored under key, or ErrNotFound when the key is
	// missing or its entry has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous entry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// PutMany stores all entries atomically.
	PutMany(ctx context.Context, entries []Entry) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the live keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the resources held by the store.
	Close() error
}

// ValidateKey rejects keys no backend can store.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidKey, MaxKeyLength)
	}
	return nil
}

// MaxKeyLength is the longest accepted key.
const MaxKeyLength = 255
