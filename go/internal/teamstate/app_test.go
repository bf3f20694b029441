package teamstate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/gameboard/go/internal/models"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves []models.Registry
	err   error
}

func (p *recordingPersister) Save(_ context.Context, r models.Registry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saves = append(p.saves, r)
	return nil
}

func (p *recordingPersister) last() (models.Registry, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return models.Registry{}, 0
	}
	return p.saves[len(p.saves)-1], len(p.saves)
}

func newTestApp() (*App, *recordingPersister) {
	persister := &recordingPersister{}
	return NewApp(NewStore(seeded()), persister, DefaultSeed()), persister
}

func TestAppSavesEveryMutation(t *testing.T) {
	ctx := context.Background()
	app, persister := newTestApp()

	steps := []func() (models.Registry, error){
		func() (models.Registry, error) { return app.SetHealth(ctx, "Team Alpha", -25) },
		func() (models.Registry, error) { return app.SetResource(ctx, "Team Beta", models.ResourceApple, -1) },
		func() (models.Registry, error) { return app.ToggleEquipment(ctx, "Team Beta", models.ItemShield) },
		func() (models.Registry, error) { return app.ToggleEnchantment(ctx, "Team Gamma", models.EnchantmentPunch) },
		func() (models.Registry, error) { return app.CreateTeam(ctx, "Team Delta") },
		func() (models.Registry, error) { return app.SelectTeam(ctx, "Team Beta") },
		func() (models.Registry, error) { return app.HideTeam(ctx, "Team Gamma") },
		func() (models.Registry, error) { return app.UnhideTeam(ctx, "Team Gamma") },
		func() (models.Registry, error) { return app.RenameTeam(ctx, "Team Bravo") },
	}
	for i, step := range steps {
		got, err := step()
		if err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
		saved, n := persister.last()
		if n != i+1 {
			t.Fatalf("step %d saves = %d, want %d", i, n, i+1)
		}
		if diff := cmp.Diff(got, saved); diff != "" {
			t.Fatalf("step %d saved snapshot mismatch (-returned +saved):\n%s", i, diff)
		}
		if diff := cmp.Diff(got, app.Snapshot()); diff != "" {
			t.Fatalf("step %d store mismatch (-returned +store):\n%s", i, diff)
		}
	}

	final := app.Snapshot()
	if final.Selected != "Team Bravo" {
		t.Fatalf("Selected = %q, want %q", final.Selected, "Team Bravo")
	}
	if got := final.Teams["Team Bravo"].Equipment.Shield; !got {
		t.Fatal("renamed team lost its equipment")
	}
}

func TestAppResetAll(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp()

	if _, err := app.SetHealth(ctx, "Team Alpha", -60); err != nil {
		t.Fatalf("SetHealth() error = %v", err)
	}
	got, err := app.ResetAll(ctx)
	if err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if diff := cmp.Diff(seeded(), got); diff != "" {
		t.Fatalf("ResetAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestAppSaveFailureKeepsLocalUpdate(t *testing.T) {
	ctx := context.Background()
	app, persister := newTestApp()
	persister.err = errors.New("disk full")

	got, err := app.SetHealth(ctx, "Team Alpha", -40)
	if err == nil {
		t.Fatal("SetHealth() error = nil, want error")
	}
	if !errors.Is(err, persister.err) {
		t.Fatalf("SetHealth() error = %v, want wrapping %v", err, persister.err)
	}
	if got.Teams["Team Alpha"].Health != 60 {
		t.Fatalf("returned health = %d, want 60", got.Teams["Team Alpha"].Health)
	}
	if h := app.Snapshot().Teams["Team Alpha"].Health; h != 60 {
		t.Fatalf("store health = %d, want 60", h)
	}
}

func TestAppPublishesToSubscribers(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp()
	sub := app.Store().Subscribe()
	defer sub.Close()

	if _, err := app.SetResource(ctx, "Team Beta", models.ResourceCookedSteak, 4); err != nil {
		t.Fatalf("SetResource() error = %v", err)
	}
	r := <-sub.C()
	if got := r.Teams["Team Beta"].Resources.CookedSteak; got != 7 {
		t.Fatalf("cookedSteak = %d, want 7", got)
	}
}

type stubLoader struct {
	r  models.Registry
	ok bool
}

func (l stubLoader) Load(context.Context) (models.Registry, bool) {
	return l.r, l.ok
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	stored := SetHealth(seeded(), "Team Beta", -5)

	t.Run("loads persisted state", func(t *testing.T) {
		persister := &recordingPersister{}
		got, err := Bootstrap(ctx, stubLoader{r: stored, ok: true}, persister, DefaultSeed())
		if err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
		if diff := cmp.Diff(stored, got); diff != "" {
			t.Fatalf("Bootstrap() mismatch (-want +got):\n%s", diff)
		}
		if _, n := persister.last(); n != 0 {
			t.Fatalf("saves = %d, want 0", n)
		}
	})

	t.Run("seeds and saves when absent", func(t *testing.T) {
		persister := &recordingPersister{}
		got, err := Bootstrap(ctx, stubLoader{}, persister, DefaultSeed())
		if err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
		if diff := cmp.Diff(seeded(), got); diff != "" {
			t.Fatalf("Bootstrap() mismatch (-want +got):\n%s", diff)
		}
		if _, n := persister.last(); n != 1 {
			t.Fatalf("saves = %d, want 1", n)
		}
	})

	t.Run("read-only context does not save", func(t *testing.T) {
		got, err := Bootstrap(ctx, stubLoader{}, nil, DefaultSeed())
		if err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
		if got.Selected != "Team Alpha" {
			t.Fatalf("Selected = %q, want %q", got.Selected, "Team Alpha")
		}
	})

	t.Run("save failure still returns seed", func(t *testing.T) {
		persister := &recordingPersister{err: errors.New("offline")}
		got, err := Bootstrap(ctx, stubLoader{}, persister, DefaultSeed())
		if err == nil {
			t.Fatal("Bootstrap() error = nil, want error")
		}
		if len(got.Teams) != 3 {
			t.Fatalf("len(Teams) = %d, want 3", len(got.Teams))
		}
	})
}
