package teamstate

import (
	"sync"

	"github.com/mcdev12/gameboard/go/internal/models"
)

// Store holds the current registry snapshot of one context
type Store struct {
	mu      sync.RWMutex
	current models.Registry
	subs    map[*Subscription]struct{}
}

// NewStore creates a store holding initial
func NewStore(initial models.Registry) *Store {
	return &Store{
		current: initial,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Snapshot returns the current registry. Callers must not modify its Teams map.
func (s *Store) Snapshot() models.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace overwrites the snapshot wholesale and notifies subscribers
func (s *Store) Replace(r models.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
	s.publish(r)
}

// Apply runs fn against the current snapshot and stores the result
func (s *Store) Apply(fn func(models.Registry) models.Registry) models.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.current)
	s.current = next
	s.publish(next)
	return next
}

// Subscribe registers for snapshot updates. The subscription only ever holds the
// most recent undelivered snapshot. Close must be called to release it.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		ch:    make(chan models.Registry, 1),
		store: s,
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// publish must be called with mu held
func (s *Store) publish(r models.Registry) {
	for sub := range s.subs {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- r
	}
}

func (s *Store) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
}

// Subscription delivers registry snapshots published by a Store
type Subscription struct {
	ch    chan models.Registry
	store *Store
	once  sync.Once
}

// C returns the update channel. It is closed by Close.
func (s *Subscription) C() <-chan models.Registry {
	return s.ch
}

// Close unregisters the subscription
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.store.unsubscribe(s)
	})
}
