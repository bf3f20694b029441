package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/mcdev12/gameboard/go/internal/persistence"
	"github.com/mcdev12/gameboard/go/internal/persistence/memory"
)

func sampleRegistry() models.Registry {
	alpha := models.NewTeam()
	alpha.Health = 42
	alpha.Resources = models.Resources{Apple: 1, CookedSteak: 9}
	alpha.Equipment.Arrows = true
	alpha.Enchantments.Poison = true

	beta := models.NewTeam()
	beta.Hidden = true

	return models.Registry{
		Teams:    map[string]models.Team{"Team Alpha": alpha, "Team Beta": beta},
		Selected: "Team Alpha",
	}
}

func TestAdapterKeys(t *testing.T) {
	a := persistence.NewAdapter(memory.NewSpace().Handle(), "arena")
	if got := a.TeamsKey(); got != "arena-teams" {
		t.Fatalf("TeamsKey() = %q, want %q", got, "arena-teams")
	}
	if got := a.SelectionKey(); got != "arena-currentTeam" {
		t.Fatalf("SelectionKey() = %q, want %q", got, "arena-currentTeam")
	}
	if !a.Owns("arena-teams") || a.Owns("other-teams") {
		t.Fatal("Owns() does not match the adapter keys")
	}
}

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := persistence.NewAdapter(memory.NewSpace().Handle(), "arena")
	want := sampleRegistry()

	if err := a.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, ok := a.Load(ctx)
	if !ok {
		t.Fatal("Load() ok = false, want true")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestAdapterStoredLayout(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewSpace().Handle()
	a := persistence.NewAdapter(kv, "arena")

	r := models.Registry{
		Teams:    map[string]models.Team{"Solo": models.NewTeam()},
		Selected: "Solo",
	}
	if err := a.Save(ctx, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	selected, ok, err := kv.Get(ctx, "arena-currentTeam")
	if err != nil || !ok {
		t.Fatalf("Get(selection) = %q, %v, %v", selected, ok, err)
	}
	if selected != "Solo" {
		t.Fatalf("selection = %q, want plain %q", selected, "Solo")
	}

	teams, _, _ := kv.Get(ctx, "arena-teams")
	want := `{"Solo":{"health":100,"maxHealth":100,` +
		`"resources":{"apple":0,"cookedSteak":0},` +
		`"equipment":{"arrows":false,"shield":false,"bow":false},` +
		`"enchantments":{"powerV":false,"flame":false,"punch":false,"poison":false},` +
		`"hidden":false}}`
	if teams != want {
		t.Fatalf("teams = %s, want %s", teams, want)
	}
}

func TestAdapterLoadAbsent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		teams *string
	}{
		{name: "unset"},
		{name: "empty", teams: ptr("")},
		{name: "malformed", teams: ptr("{not json")},
		{name: "wrong shape", teams: ptr(`["Team Alpha"]`)},
		{name: "null", teams: ptr("null")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.NewSpace().Handle()
			if tt.teams != nil {
				if err := kv.Set(ctx, "arena-teams", *tt.teams); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}
			a := persistence.NewAdapter(kv, "arena")
			if r, ok := a.Load(ctx); ok {
				t.Fatalf("Load() = %+v, true; want absent", r)
			}
		})
	}
}

func TestAdapterLoadNormalizes(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewSpace().Handle()
	raw := `{"Zed":{"health":500,"maxHealth":0,"resources":{"apple":-3,"cookedSteak":2}},"Amy":{"health":-1,"maxHealth":10}}`
	if err := kv.Set(ctx, "arena-teams", raw); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := persistence.NewAdapter(kv, "arena").Load(ctx)
	if !ok {
		t.Fatal("Load() ok = false, want true")
	}
	want := models.Registry{
		Teams: map[string]models.Team{
			"Zed": {Health: 100, MaxHealth: 100, Resources: models.Resources{CookedSteak: 2}},
			"Amy": {Health: 0, MaxHealth: 10},
		},
		// no stored selection resolves to the first name
		Selected: "Amy",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("unavailable")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("unavailable")
}

func TestAdapterBackendErrors(t *testing.T) {
	ctx := context.Background()
	a := persistence.NewAdapter(failingKV{}, "arena")

	if _, ok := a.Load(ctx); ok {
		t.Fatal("Load() ok = true, want false on read error")
	}
	if err := a.Save(ctx, sampleRegistry()); err == nil {
		t.Fatal("Save() error = nil, want error")
	}
}

func ptr(s string) *string { return &s }
