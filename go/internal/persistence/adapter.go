package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	teamsKeySuffix     = "-teams"
	selectionKeySuffix = "-currentTeam"
)

// Adapter stores a Registry under two keys of a namespace: the JSON encoded
// team mapping and the plain selected team name. The two writes are not atomic;
// a concurrent reader may see the new teams with the old selection.
type Adapter struct {
	kv        KV
	namespace string
}

// NewAdapter creates an adapter over kv
func NewAdapter(kv KV, namespace string) *Adapter {
	return &Adapter{kv: kv, namespace: namespace}
}

// TeamsKey is the key holding the team mapping
func (a *Adapter) TeamsKey() string {
	return a.namespace + teamsKeySuffix
}

// SelectionKey is the key holding the selected team name
func (a *Adapter) SelectionKey() string {
	return a.namespace + selectionKeySuffix
}

// Keys returns every key the adapter writes
func (a *Adapter) Keys() []string {
	return []string{a.TeamsKey(), a.SelectionKey()}
}

// Owns reports whether key is one of the adapter's keys
func (a *Adapter) Owns(key string) bool {
	return key == a.TeamsKey() || key == a.SelectionKey()
}

// KV returns the underlying key-value location
func (a *Adapter) KV() KV {
	return a.kv
}

// Save writes the full registry
func (a *Adapter) Save(ctx context.Context, r models.Registry) error {
	teams := r.Teams
	if teams == nil {
		teams = map[string]models.Team{}
	}
	data, err := json.Marshal(teams)
	if err != nil {
		return fmt.Errorf("failed to marshal teams: %w", err)
	}

	if err := a.kv.Set(ctx, a.TeamsKey(), string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.TeamsKey(), err)
	}
	if err := a.kv.Set(ctx, a.SelectionKey(), r.Selected); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.SelectionKey(), err)
	}
	return nil
}

// Load reads the registry. It reports false when nothing usable is stored;
// read and decode failures are logged and also reported as false.
func (a *Adapter) Load(ctx context.Context) (models.Registry, bool) {
	raw, ok, err := a.kv.Get(ctx, a.TeamsKey())
	if err != nil {
		log.Warn().Err(err).Str("key", a.TeamsKey()).Msg("failed to read team state")
		return models.Registry{}, false
	}
	if !ok || raw == "" {
		return models.Registry{}, false
	}

	var teams map[string]models.Team
	if err := json.Unmarshal([]byte(raw), &teams); err != nil {
		log.Warn().Err(err).Str("key", a.TeamsKey()).Msg("discarding malformed team state")
		return models.Registry{}, false
	}
	if teams == nil {
		return models.Registry{}, false
	}
	for name, team := range teams {
		teams[name] = team.Normalize()
	}

	r := models.Registry{Teams: teams}
	selected, ok, err := a.kv.Get(ctx, a.SelectionKey())
	if err != nil {
		log.Warn().Err(err).Str("key", a.SelectionKey()).Msg("failed to read selected team")
	}
	if ok {
		r.Selected = selected
	}
	if r.Selected == "" {
		if names := r.Names(); len(names) > 0 {
			r.Selected = names[0]
		}
	}
	return r, true
}
