package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/mcdev12/gameboard/go/internal/persistence"
)

type Config struct {
	PollInterval time.Duration // How often to reload regardless of signals
}

func DefaultConfig() Config {
	return Config{
		PollInterval: time.Second,
	}
}

// Sink receives every freshly loaded snapshot
type Sink interface {
	Replace(r models.Registry)
}

// Option configures a Bridge
type Option func(*Bridge)

// WithClock replaces the real clock, mainly for tests
func WithClock(clock clockwork.Clock) Option {
	return func(b *Bridge) { b.clock = clock }
}

// WithLocker makes every load+replace hold l, so a writing context can keep
// reloads from interleaving with its own mutate+save.
func WithLocker(l sync.Locker) Option {
	return func(b *Bridge) { b.locker = l }
}

// Stats describes bridge activity
type Stats struct {
	Running      bool
	SignalActive bool
	Loads        uint64
	Misses       uint64
	LastLoad     time.Time
}

// Bridge keeps a context's snapshot eventually consistent with the persisted
// copy. It reloads on every change signal from other contexts (when the
// backend supports watching) and on a fixed poll interval. Each successful load
// replaces the sink's snapshot wholesale.
type Bridge struct {
	adapter *persistence.Adapter
	sink    Sink
	cfg     Config
	clock   clockwork.Clock
	locker  sync.Locker

	mu           sync.Mutex
	running      bool
	signalActive bool
	loads        uint64
	misses       uint64
	lastLoad     time.Time
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// New creates a bridge feeding sink from adapter
func New(adapter *persistence.Adapter, sink Sink, cfg Config, opts ...Option) *Bridge {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	b := &Bridge{
		adapter: adapter,
		sink:    sink,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start begins watching and polling in the background
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.stopChan != nil {
		b.mu.Unlock()
		return fmt.Errorf("bridge already running")
	}
	b.running = true
	b.stopChan = make(chan struct{})
	stop := b.stopChan
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run(ctx, stop)

	log.Info().
		Dur("poll_interval", b.cfg.PollInterval).
		Strs("keys", b.adapter.Keys()).
		Msg("bridge started")
	return nil
}

// Stop tears down the watch subscription and the poll ticker and waits for
// the background loop to exit. It must be called even if ctx ended the loop.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if b.stopChan == nil {
		b.mu.Unlock()
		return fmt.Errorf("bridge not running")
	}
	close(b.stopChan)
	b.stopChan = nil
	b.mu.Unlock()

	b.wg.Wait()

	log.Info().Msg("bridge stopped")
	return nil
}

// Stats returns a copy of the bridge counters
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Running:      b.running,
		SignalActive: b.signalActive,
		Loads:        b.loads,
		Misses:       b.misses,
		LastLoad:     b.lastLoad,
	}
}

func (b *Bridge) run(ctx context.Context, stop <-chan struct{}) {
	defer b.wg.Done()
	defer func() {
		b.mu.Lock()
		b.running = false
		b.signalActive = false
		b.mu.Unlock()
	}()

	var changes <-chan persistence.Change
	if sub := b.subscribe(ctx); sub != nil {
		defer func() {
			if err := sub.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close change subscription")
			}
		}()
		changes = sub.Changes()
	}

	ticker := b.clock.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	b.refresh(ctx, "start")

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case change, ok := <-changes:
			if !ok {
				log.Warn().Msg("change feed closed, continuing with polling only")
				changes = nil
				b.setSignalActive(false)
				continue
			}
			// an empty key means the backend may have missed writes
			if change.Key != "" && !b.adapter.Owns(change.Key) {
				continue
			}
			b.refresh(ctx, "signal")
		case <-ticker.Chan():
			b.refresh(ctx, "poll")
		}
	}
}

// subscribe opens the change feed if the backend has one. Any failure leaves
// the bridge polling only.
func (b *Bridge) subscribe(ctx context.Context) persistence.Subscription {
	watcher, ok := b.adapter.KV().(persistence.Watcher)
	if !ok {
		log.Info().Msg("storage backend has no change signal, polling only")
		return nil
	}
	sub, err := watcher.Watch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to watch storage, polling only")
		return nil
	}
	b.setSignalActive(true)
	return sub
}

func (b *Bridge) setSignalActive(active bool) {
	b.mu.Lock()
	b.signalActive = active
	b.mu.Unlock()
}

// refresh loads the persisted registry and hands it to the sink. Nothing is
// replaced when nothing usable is stored.
func (b *Bridge) refresh(ctx context.Context, trigger string) {
	if b.locker != nil {
		b.locker.Lock()
		defer b.locker.Unlock()
	}

	r, ok := b.adapter.Load(ctx)

	b.mu.Lock()
	if ok {
		b.loads++
		b.lastLoad = b.clock.Now()
	} else {
		b.misses++
	}
	b.mu.Unlock()

	if !ok {
		log.Debug().Str("trigger", trigger).Msg("no persisted team state to load")
		return
	}
	b.sink.Replace(r)

	log.Debug().
		Str("trigger", trigger).
		Int("teams", len(r.Teams)).
		Msg("reloaded team state")
}
