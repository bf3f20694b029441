package teamstate

import (
	"maps"
	"math"

	"github.com/mcdev12/gameboard/go/internal/models"
)

// Every operation in this file is total: invalid input (unknown team, unknown
// kind, empty name) returns the registry unchanged. A changed registry always
// carries a freshly cloned Teams map so earlier snapshots stay untouched.

// RenameTeam moves the selected team to newName and selects it. If newName
// already names another team that team is discarded; overwritten reports it.
func RenameTeam(r models.Registry, newName string) (next models.Registry, overwritten bool) {
	if newName == "" || newName == r.Selected {
		return r, false
	}
	team, ok := r.Teams[r.Selected]
	if !ok {
		return r, false
	}
	_, overwritten = r.Teams[newName]

	teams := maps.Clone(r.Teams)
	delete(teams, r.Selected)
	teams[newName] = team
	return models.Registry{Teams: teams, Selected: newName}, overwritten
}

// CreateTeam inserts a team with default stats and selects it
func CreateTeam(r models.Registry, name string) models.Registry {
	if name == "" {
		return r
	}
	if _, exists := r.Teams[name]; exists {
		return r
	}
	next := withTeam(r, name, models.NewTeam())
	next.Selected = name
	return next
}

// SelectTeam points the selection at an existing team
func SelectTeam(r models.Registry, name string) models.Registry {
	if _, ok := r.Teams[name]; !ok || name == r.Selected {
		return r
	}
	return models.Registry{Teams: r.Teams, Selected: name}
}

// SetHealth adds delta to the team's health, clamped to [0, maxHealth]
func SetHealth(r models.Registry, name string, delta int) models.Registry {
	return update(r, name, func(t models.Team) models.Team {
		// health and delta both fit in [-maxHealth, maxHealth] so the sum cannot overflow
		delta = models.Clamp(delta, -t.MaxHealth, t.MaxHealth)
		t.Health = models.Clamp(t.Health+delta, 0, t.MaxHealth)
		return t
	})
}

// SetResource adds delta to the team's count of kind, floored at zero
func SetResource(r models.Registry, name string, kind models.ResourceKind, delta int) models.Registry {
	return update(r, name, func(t models.Team) models.Team {
		count, ok := t.Resources.Get(kind)
		if !ok {
			return t
		}
		if delta > 0 && count > math.MaxInt-delta {
			t.Resources = t.Resources.With(kind, math.MaxInt)
			return t
		}
		t.Resources = t.Resources.With(kind, max(0, count+delta))
		return t
	})
}

// ToggleEquipment flips the equipped flag of kind
func ToggleEquipment(r models.Registry, name string, kind models.ItemKind) models.Registry {
	return update(r, name, func(t models.Team) models.Team {
		if on, ok := t.Equipment.Get(kind); ok {
			t.Equipment = t.Equipment.With(kind, !on)
		}
		return t
	})
}

// ToggleEnchantment flips the active flag of kind
func ToggleEnchantment(r models.Registry, name string, kind models.EnchantmentKind) models.Registry {
	return update(r, name, func(t models.Team) models.Team {
		if on, ok := t.Enchantments.Get(kind); ok {
			t.Enchantments = t.Enchantments.With(kind, !on)
		}
		return t
	})
}

// HideTeam excludes the team from the display. A hidden selected team hands the
// selection to the first visible team; with none left the selection stays put.
// Hiding an unknown or already hidden team changes nothing.
func HideTeam(r models.Registry, name string) models.Registry {
	if team, ok := r.Teams[name]; !ok || team.Hidden {
		return r
	}
	next := update(r, name, func(t models.Team) models.Team {
		t.Hidden = true
		return t
	})
	if next.Selected != name {
		return next
	}
	if visible := next.VisibleNames(); len(visible) > 0 {
		next.Selected = visible[0]
	}
	return next
}

// UnhideTeam returns the team to the display
func UnhideTeam(r models.Registry, name string) models.Registry {
	return update(r, name, func(t models.Team) models.Team {
		t.Hidden = false
		return t
	})
}

// ResetAll replaces the registry with the seed set
func ResetAll(seed Seed) models.Registry {
	return seed.Registry()
}

func update(r models.Registry, name string, fn func(models.Team) models.Team) models.Registry {
	team, ok := r.Teams[name]
	if !ok {
		return r
	}
	updated := fn(team)
	if updated == team {
		return r
	}
	return withTeam(r, name, updated)
}

func withTeam(r models.Registry, name string, team models.Team) models.Registry {
	teams := maps.Clone(r.Teams)
	if teams == nil {
		teams = make(map[string]models.Team)
	}
	teams[name] = team
	return models.Registry{Teams: teams, Selected: r.Selected}
}
