package boardconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/mcdev12/gameboard/go/internal/teamstate"
)

// LoadSeed returns the seed set from path, or the built-in seed when path is empty
func LoadSeed(path string) (teamstate.Seed, error) {
	if path == "" {
		return teamstate.DefaultSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return teamstate.Seed{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed set. Teams that leave both health fields out
// start at full default health.
func ParseSeed(data []byte) (teamstate.Seed, error) {
	var seed teamstate.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return teamstate.Seed{}, fmt.Errorf("failed to parse seed: %w", err)
	}
	if len(seed.Teams) == 0 {
		return teamstate.Seed{}, fmt.Errorf("seed defines no teams")
	}

	for i, entry := range seed.Teams {
		if entry.Name == "" {
			return teamstate.Seed{}, fmt.Errorf("seed team %d has no name", i)
		}
		if entry.Team.Health == 0 && entry.Team.MaxHealth == 0 {
			seed.Teams[i].Team.Health = models.DefaultMaxHealth
			seed.Teams[i].Team.MaxHealth = models.DefaultMaxHealth
		}
	}
	return seed, nil
}
