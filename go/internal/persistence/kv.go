package persistence

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by backends used before they were opened
var ErrNotConfigured = errors.New("storage is not configured")

// KV is a process-external string key-value location shared by contexts
type KV interface {
	// Get returns the value at key. ok is false when the key is unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Change reports that key was written by another context
type Change struct {
	Key string
}

// Watcher is implemented by backends that can signal writes made by other
// contexts. Writes made through the same handle are never reported back to it.
type Watcher interface {
	Watch(ctx context.Context) (Subscription, error)
}

// Subscription is a live change feed. Close stops delivery and closes Changes.
type Subscription interface {
	Changes() <-chan Change
	Close() error
}
