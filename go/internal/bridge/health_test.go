package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/mcdev12/gameboard/go/internal/persistence"
	"github.com/mcdev12/gameboard/go/internal/persistence/memory"
	"github.com/mcdev12/gameboard/go/internal/teamstate"
)

func serveHealth(t *testing.T, h *HealthChecker) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return rec.Code, status
}

func TestHealthChecker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := memory.NewSpace().Handle()
	adapter := persistence.NewAdapter(kv, "arena")
	if err := adapter.Save(ctx, teamstate.DefaultSeed().Registry()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	clock := clockwork.NewFakeClock()
	b := New(adapter, teamstate.NewStore(models.Registry{}), DefaultConfig(), WithClock(clock))
	checker := NewHealthChecker(b, 10*time.Second)

	code, status := serveHealth(t, checker)
	if code != http.StatusServiceUnavailable || status.Healthy {
		t.Fatalf("before start: code = %d healthy = %v, want 503 false", code, status.Healthy)
	}

	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Stop()
	waitFor(t, "first load", func() bool { return b.Stats().Loads >= 1 })

	code, status = serveHealth(t, checker)
	if code != http.StatusOK || !status.Healthy {
		t.Fatalf("after load: code = %d status = %+v, want 200 healthy", code, status)
	}
	if !status.SignalActive {
		t.Fatal("SignalActive = false for a watching backend")
	}

	// stored state turns unreadable, so later reloads miss
	if err := kv.Set(ctx, adapter.TeamsKey(), "{broken"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	clock.Advance(11 * time.Second)

	if s := checker.Check(ctx); s.Healthy || len(s.Errors) == 0 {
		t.Fatalf("stale: status = %+v, want unhealthy with errors", s)
	}
}
