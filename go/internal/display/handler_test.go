package display

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/mcdev12/gameboard/go/internal/teamstate"
)

func startDisplay(t *testing.T, store *teamstate.Store) (*httptest.Server, *ConnectionManager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cm := NewConnectionManager(DefaultConnectionConfig())
	service := NewService(store, cm)
	go service.Run(ctx)

	mux := http.NewServeMux()
	NewHandler(service, cm).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, cm
}

func TestHandleState(t *testing.T) {
	store := teamstate.NewStore(teamstate.DefaultSeed().Registry())
	server, _ := startDisplay(t, store)

	resp, err := http.Get(server.URL + "/api/display/state")
	if err != nil {
		t.Fatalf("GET state error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var view View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Empty || len(view.Teams) != 3 {
		t.Fatalf("view = %+v, want three teams", view)
	}
}

func readView(t *testing.T, conn *websocket.Conn, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("SetReadDeadline() error = %v", err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var view View
		if err := json.Unmarshal(data, &view); err != nil {
			t.Fatalf("decode view: %v", err)
		}
		if cond(view) {
			return view
		}
	}
}

func TestWebSocketReceivesUpdates(t *testing.T) {
	store := teamstate.NewStore(models.Registry{})
	server, cm := startDisplay(t, store)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/display"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// nothing loaded yet renders the placeholder
	readView(t, conn, func(v View) bool { return v.Empty })

	deadline := time.Now().Add(time.Second)
	for cm.ConnectionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("ConnectionCount() = %d, want 1", cm.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	r := teamstate.SetResource(teamstate.DefaultSeed().Registry(), "Team Beta", models.ResourceApple, -1)
	store.Replace(r)

	view := readView(t, conn, func(v View) bool { return !v.Empty })
	for _, card := range view.Teams {
		if card.Name == "Team Beta" && card.Resources.Apple != 4 {
			t.Fatalf("Team Beta apple = %d, want 4", card.Resources.Apple)
		}
	}
}

func TestHandleStats(t *testing.T) {
	store := teamstate.NewStore(teamstate.DefaultSeed().Registry())
	server, _ := startDisplay(t, store)

	resp, err := http.Get(server.URL + "/ws/stats")
	if err != nil {
		t.Fatalf("GET stats error = %v", err)
	}
	defer resp.Body.Close()

	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.VisibleTeams != 3 || stats.TotalConnections != 0 {
		t.Fatalf("stats = %+v, want 3 teams and no connections", stats)
	}
}

func TestBroadcastSkipsRepeats(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	cm.Broadcast([]byte(`{"empty":true}`))
	cm.Broadcast([]byte(`{"empty":true}`))

	if got := len(cm.broadcastCh); got != 1 {
		t.Fatalf("queued broadcasts = %d, want 1", got)
	}
}

func TestBroadcastDuringUnregister(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	for i := 0; i < 500; i++ {
		conn := &Connection{
			ID:      "conn",
			Send:    make(chan []byte, 16),
			Manager: cm,
		}
		cm.registerConnection(conn)

		done := make(chan struct{})
		go func() {
			defer close(done)
			cm.unregisterConnection(conn)
		}()
		cm.handleBroadcast([]byte(`{"empty":true}`))
		<-done
	}

	if got := cm.ConnectionCount(); got != 0 {
		t.Fatalf("ConnectionCount() = %d, want 0", got)
	}
}

func TestBroadcastDropsFullConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := &Connection{ID: "slow", Send: make(chan []byte), Manager: cm}
	cm.registerConnection(conn)

	cm.handleBroadcast([]byte(`{"empty":true}`))

	if got := cm.ConnectionCount(); got != 0 {
		t.Fatalf("ConnectionCount() = %d, want 0", got)
	}
	if _, ok := <-conn.Send; ok {
		t.Fatal("Send still open for a dropped connection")
	}
}
