package control

import (
	"github.com/mcdev12/gameboard/go/internal/models"
)

// LoginRequest carries the shared secret
type LoginRequest struct {
	Secret string `json:"secret"`
}

// NameRequest carries a team name for create, select and rename
type NameRequest struct {
	Name string `json:"name"`
}

// DeltaRequest carries a signed adjustment
type DeltaRequest struct {
	Delta int `json:"delta"`
}

// TeamState is one team as shown on the control surface
type TeamState struct {
	Name         string              `json:"name"`
	Health       int                 `json:"health"`
	MaxHealth    int                 `json:"maxHealth"`
	Resources    models.Resources    `json:"resources"`
	Equipment    models.Equipment    `json:"equipment"`
	Enchantments models.Enchantments `json:"enchantments"`
	Hidden       bool                `json:"hidden"`
}

// StateResponse is the control surface view of the registry: every visible
// team plus the hidden ones listed separately for unhiding
type StateResponse struct {
	Selected    string      `json:"selected"`
	Teams       []TeamState `json:"teams"`
	HiddenTeams []string    `json:"hidden_teams"`
}

// DebugResponse mirrors the debug panel of the control surface
type DebugResponse struct {
	CurrentTeam     string       `json:"current_team"`
	AvailableTeams  []string     `json:"available_teams"`
	CurrentTeamData *models.Team `json:"current_team_data,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewStateResponse builds the control view of r
func NewStateResponse(r models.Registry) StateResponse {
	resp := StateResponse{
		Selected:    r.Selected,
		Teams:       []TeamState{},
		HiddenTeams: []string{},
	}
	for _, name := range r.VisibleNames() {
		t := r.Teams[name]
		resp.Teams = append(resp.Teams, TeamState{
			Name:         name,
			Health:       t.Health,
			MaxHealth:    t.MaxHealth,
			Resources:    t.Resources,
			Equipment:    t.Equipment,
			Enchantments: t.Enchantments,
			Hidden:       t.Hidden,
		})
	}
	resp.HiddenTeams = append(resp.HiddenTeams, r.HiddenNames()...)
	return resp
}

// NewDebugResponse builds the debug view of r
func NewDebugResponse(r models.Registry) DebugResponse {
	resp := DebugResponse{
		CurrentTeam:    r.Selected,
		AvailableTeams: r.Names(),
	}
	if t, ok := r.Team(r.Selected); ok {
		resp.CurrentTeamData = &t
	}
	return resp
}
