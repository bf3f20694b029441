// Package postgres stores the shared key-value location in a Postgres table and
// signals writes to other contexts through LISTEN/NOTIFY.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/gameboard/go/internal/persistence"
	"github.com/rs/zerolog/log"
)

var (
	_ persistence.KV      = (*Store)(nil)
	_ persistence.Watcher = (*Store)(nil)
)

const schema = `CREATE TABLE IF NOT EXISTS gameboard_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	origin     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Config holds the Postgres backend settings
type Config struct {
	DSN           string // Postgres connection URL
	NotifyChannel string // LISTEN/NOTIFY channel announcing writes
}

// notification is the NOTIFY payload announcing a write
type notification struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
}

// Store implements KV on top of a pgx pool
type Store struct {
	pool   *pgxpool.Pool
	cfg    Config
	origin string
}

// Open connects to Postgres and ensures the kv table exists
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.NotifyChannel == "" {
		return nil, fmt.Errorf("notify channel is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	s := &Store{
		pool:   pool,
		cfg:    cfg,
		origin: uuid.NewString(),
	}
	log.Info().
		Str("channel", cfg.NotifyChannel).
		Str("origin", s.origin).
		Msg("connected postgres kv store")
	return s, nil
}

// Close releases the pool
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Origin identifies this store in notifications
func (s *Store) Origin() string {
	return s.origin
}

// Get returns the value stored at key
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.pool == nil {
		return "", false, persistence.ErrNotConfigured
	}

	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM gameboard_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value at key and announces the write. The notification is sent in
// the same transaction so listeners never hear about an uncommitted value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s == nil || s.pool == nil {
		return persistence.ErrNotConfigured
	}

	payload, err := json.Marshal(notification{Origin: s.origin, Key: key})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO gameboard_kv (key, value, origin, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = EXCLUDED.updated_at
		`, key, value, s.origin); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.cfg.NotifyChannel, string(payload)); err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Watch listens for writes made by other stores
func (s *Store) Watch(ctx context.Context) (persistence.Subscription, error) {
	cfg := DefaultListenerConfig()
	cfg.DatabaseURL = s.cfg.DSN
	cfg.NotifyChannel = s.cfg.NotifyChannel
	listener, err := NewListener(ctx, s.origin, cfg)
	if err != nil {
		return nil, err
	}
	return listener, nil
}
