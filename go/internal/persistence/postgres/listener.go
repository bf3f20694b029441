package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/mcdev12/gameboard/go/internal/persistence"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL   string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string        // Channel name to LISTEN on
	PingInterval  time.Duration // Keepalive for idle connections
	MinReconnect  time.Duration
	MaxReconnect  time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel: "gameboard_kv_changes",
		PingInterval:  90 * time.Second,
		MinReconnect:  10 * time.Second,
		MaxReconnect:  time.Minute,
	}
}

// Listener turns NOTIFY payloads from other origins into change events
type Listener struct {
	listener *pq.Listener
	origin   string
	cfg      ListenerConfig
	changes  chan persistence.Change
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewListener starts listening on cfg.NotifyChannel. Notifications written by
// origin are dropped. The listener stops when ctx is done or Close is called.
func NewListener(ctx context.Context, origin string, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnect,
		cfg.MaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	ln := &Listener{
		listener: l,
		origin:   origin,
		cfg:      cfg,
		changes:  make(chan persistence.Change, 16),
		done:     make(chan struct{}),
	}
	ln.wg.Add(1)
	go ln.run(ctx)
	return ln, nil
}

// Changes returns the change feed
func (l *Listener) Changes() <-chan persistence.Change {
	return l.changes
}

// Close stops the listener and closes the change feed
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		l.wg.Wait()
		err = l.listener.Close()
	})
	return err
}

func (l *Listener) run(ctx context.Context) {
	defer l.wg.Done()
	defer close(l.changes)

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			go func() { _ = l.Close() }()
			return
		case <-l.done:
			return
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was re-established; writes
				// may have been missed, so report a change on an unknown key
				l.emit(persistence.Change{})
				continue
			}
			l.handleNotification(note.Extra)
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// handleNotification decodes a NOTIFY payload and forwards foreign writes
func (l *Listener) handleNotification(extra string) {
	var n notification
	if err := json.Unmarshal([]byte(extra), &n); err != nil {
		log.Error().Err(err).Str("payload", extra).Msg("invalid notification payload")
		return
	}
	if n.Origin == l.origin {
		return
	}
	l.emit(persistence.Change{Key: n.Key})
}

func (l *Listener) emit(c persistence.Change) {
	select {
	case l.changes <- c:
	default:
		log.Debug().Str("key", c.Key).Msg("change feed full, dropping notification")
	}
}
