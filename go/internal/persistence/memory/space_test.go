package memory

import (
	"context"
	"testing"
	"time"
)

func TestHandlesShareValues(t *testing.T) {
	ctx := context.Background()
	space := NewSpace()
	writer, reader := space.Handle(), space.Handle()

	if _, ok, _ := reader.Get(ctx, "k"); ok {
		t.Fatal("Get() ok = true before any write")
	}
	if err := writer.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := reader.Get(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Fatalf("Get() = %q, %v, %v; want %q, true, nil", got, ok, err, "v")
	}
}

func TestWatchSkipsOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	space := NewSpace()
	writer, reader := space.Handle(), space.Handle()

	writerSub, err := writer.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer writerSub.Close()
	readerSub, err := reader.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer readerSub.Close()

	if err := writer.Set(ctx, "arena-teams", "{}"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case change := <-readerSub.Changes():
		if change.Key != "arena-teams" {
			t.Fatalf("change key = %q, want %q", change.Key, "arena-teams")
		}
	case <-time.After(time.Second):
		t.Fatal("reader saw no change")
	}

	select {
	case change := <-writerSub.Changes():
		t.Fatalf("writer notified of its own write: %+v", change)
	default:
	}
}

func TestWatchClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := NewSpace().Handle().Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Changes():
		if ok {
			t.Fatal("unexpected change")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
