package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mcdev12/gameboard/go/internal/persistence"
)

func openTempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "board.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open() error = nil, want error")
	}
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	store, _ := openTempStore(t)

	if _, ok, err := store.Get(ctx, "arena-teams"); err != nil || ok {
		t.Fatalf("Get() before write = ok %v, err %v; want false, nil", ok, err)
	}

	if err := store.Set(ctx, "arena-teams", "first"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "arena-teams", "second"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := store.Get(ctx, "arena-teams")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if got != "second" {
		t.Fatalf("Get() = %q, want %q", got, "second")
	}
}

func TestSharedFileAcrossHandles(t *testing.T) {
	ctx := context.Background()
	writer, path := openTempStore(t)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open() second handle error = %v", err)
	}
	defer reader.Close()

	if err := writer.Set(ctx, "arena-currentTeam", "Team Beta"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := reader.Get(ctx, "arena-currentTeam")
	if err != nil || !ok || got != "Team Beta" {
		t.Fatalf("Get() = %q, %v, %v; want %q", got, ok, err, "Team Beta")
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if _, _, err := store.Get(context.Background(), "k"); !errors.Is(err, persistence.ErrNotConfigured) {
		t.Fatalf("Get() error = %v, want ErrNotConfigured", err)
	}
	if err := store.Set(context.Background(), "k", "v"); !errors.Is(err, persistence.ErrNotConfigured) {
		t.Fatalf("Set() error = %v, want ErrNotConfigured", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNoWatchSupport(t *testing.T) {
	store, _ := openTempStore(t)
	var kv persistence.KV = store
	if _, ok := kv.(persistence.Watcher); ok {
		t.Fatal("sqlite store unexpectedly implements Watcher")
	}
}
