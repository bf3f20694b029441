package display

import (
	"github.com/mcdev12/gameboard/go/internal/models"
)

// TeamCard is one visible team as rendered on the display
type TeamCard struct {
	Name          string                   `json:"name"`
	Health        int                      `json:"health"`
	MaxHealth     int                      `json:"maxHealth"`
	HealthPercent int                      `json:"healthPercent"`
	Resources     models.Resources         `json:"resources"`
	Equipped      []models.ItemKind        `json:"equipped"`
	Enchantments  []models.EnchantmentKind `json:"enchantments"`
}

// View is everything the display renders. Empty asks for the placeholder.
type View struct {
	Empty bool       `json:"empty"`
	Teams []TeamCard `json:"teams"`
}

// BuildView renders every non-hidden team in name order
func BuildView(r models.Registry) View {
	view := View{Teams: []TeamCard{}}
	for _, name := range r.VisibleNames() {
		t := r.Teams[name]
		view.Teams = append(view.Teams, TeamCard{
			Name:          name,
			Health:        t.Health,
			MaxHealth:     t.MaxHealth,
			HealthPercent: healthPercent(t),
			Resources:     t.Resources,
			Equipped:      t.Equipment.Equipped(),
			Enchantments:  t.Enchantments.Active(),
		})
	}
	view.Empty = len(view.Teams) == 0
	return view
}

func healthPercent(t models.Team) int {
	if t.MaxHealth <= 0 {
		return 0
	}
	return t.Health * 100 / t.MaxHealth
}
