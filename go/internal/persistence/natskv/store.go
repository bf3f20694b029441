// Package natskv stores the shared key-value location in a NATS JetStream
// key-value bucket and uses bucket watches as the change signal.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/persistence"
)

var (
	_ persistence.KV      = (*Store)(nil)
	_ persistence.Watcher = (*Store)(nil)
)

const maxTrackedRevisions = 1024

// Config holds the NATS backend settings
type Config struct {
	URL           string
	Bucket        string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default NATS backend configuration
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Bucket:        "gameboard",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Store implements KV on a JetStream key-value bucket
type Store struct {
	nc  *nats.Conn
	kv  jetstream.KeyValue
	cfg Config

	// revisions written through this store, suppressed in its own watches
	mu        sync.Mutex
	revisions map[uint64]struct{}
}

// Open connects to NATS and creates or binds the bucket
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "Shared game board state",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("bucket", cfg.Bucket).
		Msg("connected NATS kv store")

	return &Store{
		nc:        nc,
		kv:        kv,
		cfg:       cfg,
		revisions: make(map[uint64]struct{}),
	}, nil
}

// Close drains the NATS connection
func (s *Store) Close() error {
	if s == nil || s.nc == nil {
		return nil
	}
	s.nc.Close()
	return nil
}

// Get returns the value stored at key
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.kv == nil {
		return "", false, persistence.ErrNotConfigured
	}
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return string(entry.Value()), true, nil
}

// Set stores value at key
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s == nil || s.kv == nil {
		return persistence.ErrNotConfigured
	}
	rev, err := s.kv.Put(ctx, key, []byte(value))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.mu.Lock()
	if len(s.revisions) >= maxTrackedRevisions {
		// nothing is consuming our own updates; start over
		clear(s.revisions)
	}
	s.revisions[rev] = struct{}{}
	s.mu.Unlock()
	return nil
}

// ownRevision reports and forgets a revision written by this store
func (s *Store) ownRevision(rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revisions[rev]; ok {
		delete(s.revisions, rev)
		return true
	}
	return false
}

// Watch reports puts on the bucket made by other stores. Suppression of own
// writes is best-effort: an update that arrives before Put returns is reported.
func (s *Store) Watch(ctx context.Context) (persistence.Subscription, error) {
	if s == nil || s.kv == nil {
		return nil, persistence.ErrNotConfigured
	}
	watcher, err := s.kv.WatchAll(ctx, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("watch bucket %s: %w", s.cfg.Bucket, err)
	}

	w := &watch{
		watcher: watcher,
		changes: make(chan persistence.Change, 16),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run(ctx, s)
	return w, nil
}

type watch struct {
	watcher jetstream.KeyWatcher
	changes chan persistence.Change
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func (w *watch) Changes() <-chan persistence.Change {
	return w.changes
}

func (w *watch) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Stop()
		w.wg.Wait()
	})
	return err
}

func (w *watch) run(ctx context.Context, s *Store) {
	defer w.wg.Done()
	defer close(w.changes)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case entry, ok := <-w.watcher.Updates():
			if !ok {
				return
			}
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}
			if s.ownRevision(entry.Revision()) {
				continue
			}
			select {
			case w.changes <- persistence.Change{Key: entry.Key()}:
			default:
				log.Debug().Str("key", entry.Key()).Msg("change feed full, dropping update")
			}
		}
	}
}
