package teamstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Persister defines what the app needs from the persistence layer
type Persister interface {
	Save(ctx context.Context, r models.Registry) error
}

// App applies mutations for the writing context. Every mutation updates the
// store first and then saves the resulting snapshot before returning.
type App struct {
	store     *Store
	persister Persister
	seed      Seed

	// mu orders apply+save pairs so a context never saves an older snapshot
	// after a newer one.
	mu sync.Mutex
}

// NewApp creates a new team state App
func NewApp(store *Store, persister Persister, seed Seed) *App {
	return &App{
		store:     store,
		persister: persister,
		seed:      seed,
	}
}

// Snapshot returns the current registry
func (a *App) Snapshot() models.Registry {
	return a.store.Snapshot()
}

// Store returns the underlying store
func (a *App) Store() *Store {
	return a.store
}

// SyncLock returns the lock that serializes mutations. Holding it while
// reloading from persistence keeps a reload from landing between a mutation
// and its save.
func (a *App) SyncLock() sync.Locker {
	return &a.mu
}

// RenameTeam renames the selected team
func (a *App) RenameTeam(ctx context.Context, newName string) (models.Registry, error) {
	var overwritten bool
	previous := a.store.Snapshot().Selected
	next, err := a.mutate(ctx, "rename_team", func(r models.Registry) models.Registry {
		var out models.Registry
		out, overwritten = RenameTeam(r, newName)
		return out
	})
	if overwritten {
		log.Warn().
			Str("from", previous).
			Str("to", newName).
			Msg("rename replaced an existing team")
	}
	return next, err
}

// CreateTeam adds a team with default stats and selects it
func (a *App) CreateTeam(ctx context.Context, name string) (models.Registry, error) {
	return a.mutate(ctx, "create_team", func(r models.Registry) models.Registry {
		return CreateTeam(r, name)
	})
}

// SelectTeam changes the selected team
func (a *App) SelectTeam(ctx context.Context, name string) (models.Registry, error) {
	return a.mutate(ctx, "select_team", func(r models.Registry) models.Registry {
		return SelectTeam(r, name)
	})
}

// SetHealth adjusts a team's health by delta
func (a *App) SetHealth(ctx context.Context, team string, delta int) (models.Registry, error) {
	return a.mutate(ctx, "set_health", func(r models.Registry) models.Registry {
		return SetHealth(r, team, delta)
	})
}

// SetResource adjusts a team's resource count by delta
func (a *App) SetResource(ctx context.Context, team string, kind models.ResourceKind, delta int) (models.Registry, error) {
	return a.mutate(ctx, "set_resource", func(r models.Registry) models.Registry {
		return SetResource(r, team, kind, delta)
	})
}

// ToggleEquipment flips an item on a team
func (a *App) ToggleEquipment(ctx context.Context, team string, kind models.ItemKind) (models.Registry, error) {
	return a.mutate(ctx, "toggle_equipment", func(r models.Registry) models.Registry {
		return ToggleEquipment(r, team, kind)
	})
}

// ToggleEnchantment flips an enchantment on a team
func (a *App) ToggleEnchantment(ctx context.Context, team string, kind models.EnchantmentKind) (models.Registry, error) {
	return a.mutate(ctx, "toggle_enchantment", func(r models.Registry) models.Registry {
		return ToggleEnchantment(r, team, kind)
	})
}

// HideTeam hides a team from the display
func (a *App) HideTeam(ctx context.Context, team string) (models.Registry, error) {
	return a.mutate(ctx, "hide_team", func(r models.Registry) models.Registry {
		return HideTeam(r, team)
	})
}

// UnhideTeam shows a hidden team again
func (a *App) UnhideTeam(ctx context.Context, team string) (models.Registry, error) {
	return a.mutate(ctx, "unhide_team", func(r models.Registry) models.Registry {
		return UnhideTeam(r, team)
	})
}

// ResetAll restores the seed set
func (a *App) ResetAll(ctx context.Context) (models.Registry, error) {
	return a.mutate(ctx, "reset_all", func(models.Registry) models.Registry {
		return ResetAll(a.seed)
	})
}

// mutate applies fn and saves the result. A save failure leaves the in-memory
// update in place and is returned to the caller.
func (a *App) mutate(ctx context.Context, op string, fn func(models.Registry) models.Registry) (models.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.store.Apply(fn)
	if err := a.persister.Save(ctx, next); err != nil {
		log.Error().Err(err).Str("op", op).Msg("failed to persist team state")
		return next, fmt.Errorf("failed to persist %s: %w", op, err)
	}

	log.Debug().
		Str("op", op).
		Str("selected", next.Selected).
		Int("teams", len(next.Teams)).
		Msg("team state updated")
	return next, nil
}
