package teamstate

import (
	"context"
	"fmt"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Loader defines what bootstrapping needs from the persistence layer
type Loader interface {
	Load(ctx context.Context) (models.Registry, bool)
}

// Bootstrap builds the initial registry of a context from persisted state,
// falling back to the seed set. A writing context passes its persister so the
// seed is saved and becomes visible to readers; read-only contexts pass nil.
func Bootstrap(ctx context.Context, loader Loader, persister Persister, seed Seed) (models.Registry, error) {
	if r, ok := loader.Load(ctx); ok {
		log.Info().
			Int("teams", len(r.Teams)).
			Str("selected", r.Selected).
			Msg("loaded persisted team state")
		return r, nil
	}

	r := seed.Registry()
	log.Info().Int("teams", len(r.Teams)).Msg("no persisted team state, using seed set")
	if persister == nil {
		return r, nil
	}
	if err := persister.Save(ctx, r); err != nil {
		return r, fmt.Errorf("failed to persist seed set: %w", err)
	}
	return r, nil
}
