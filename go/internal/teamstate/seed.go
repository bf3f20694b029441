package teamstate

import (
	"github.com/mcdev12/gameboard/go/internal/models"
)

// SeedTeam is one entry of a seed set
type SeedTeam struct {
	Name string      `yaml:"name"`
	Team models.Team `yaml:",inline"`
}

// Seed is the ordered set of teams used when no persisted state exists and on reset.
// The first team is selected.
type Seed struct {
	Teams []SeedTeam `yaml:"teams"`
}

// DefaultSeed returns the built-in seed set
func DefaultSeed() Seed {
	names := []string{"Team Alpha", "Team Beta", "Team Gamma"}
	seed := Seed{Teams: make([]SeedTeam, 0, len(names))}
	for _, name := range names {
		team := models.NewTeam()
		team.Resources = models.Resources{Apple: 5, CookedSteak: 3}
		seed.Teams = append(seed.Teams, SeedTeam{Name: name, Team: team})
	}
	return seed
}

// Registry builds a fresh registry from the seed. Entries with an empty or
// repeated name are skipped and teams are normalized.
func (s Seed) Registry() models.Registry {
	r := models.Registry{Teams: make(map[string]models.Team, len(s.Teams))}
	for _, entry := range s.Teams {
		if entry.Name == "" {
			continue
		}
		if _, dup := r.Teams[entry.Name]; dup {
			continue
		}
		r.Teams[entry.Name] = entry.Team.Normalize()
		if r.Selected == "" {
			r.Selected = entry.Name
		}
	}
	return r
}
