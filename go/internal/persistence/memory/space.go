// Package memory provides an in-process KV shared by several context handles.
// It backs tests and single-process setups that still want the control and
// display contexts to exchange state only through storage.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/gameboard/go/internal/persistence"
)

// Space is the shared storage location
type Space struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[*subscription]struct{}
}

// NewSpace creates an empty space
func NewSpace() *Space {
	return &Space{
		values:   make(map[string]string),
		watchers: make(map[*subscription]struct{}),
	}
}

// Handle opens a context handle on the space
func (s *Space) Handle() *Handle {
	return &Handle{space: s, origin: uuid.NewString()}
}

// Handle is one context's view of a Space
type Handle struct {
	space  *Space
	origin string
}

var (
	_ persistence.KV      = (*Handle)(nil)
	_ persistence.Watcher = (*Handle)(nil)
)

// Origin identifies the handle in change notifications
func (h *Handle) Origin() string {
	return h.origin
}

// Get returns the value stored at key
func (h *Handle) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	h.space.mu.RLock()
	defer h.space.mu.RUnlock()
	v, ok := h.space.values[key]
	return v, ok, nil
}

// Set stores value at key and signals every other handle's subscriptions
func (h *Handle) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.space.mu.Lock()
	defer h.space.mu.Unlock()
	h.space.values[key] = value
	for sub := range h.space.watchers {
		if sub.origin == h.origin {
			continue
		}
		select {
		case sub.ch <- persistence.Change{Key: key}:
		default:
			// subscriber is behind; it reloads the whole registry anyway
		}
	}
	return nil
}

// Watch subscribes to writes made by other handles
func (h *Handle) Watch(ctx context.Context) (persistence.Subscription, error) {
	sub := &subscription{
		ch:     make(chan persistence.Change, 16),
		origin: h.origin,
		space:  h.space,
		done:   make(chan struct{}),
	}
	h.space.mu.Lock()
	h.space.watchers[sub] = struct{}{}
	h.space.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type subscription struct {
	ch     chan persistence.Change
	origin string
	space  *Space
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Changes() <-chan persistence.Change {
	return s.ch
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.space.mu.Lock()
		delete(s.space.watchers, s)
		close(s.ch)
		s.space.mu.Unlock()
		close(s.done)
	})
	return nil
}
