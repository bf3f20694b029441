package display

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// StatsResponse reports the display's live connections
type StatsResponse struct {
	TotalConnections int `json:"total_connections"`
	VisibleTeams     int `json:"visible_teams"`
}

// Handler serves the read-only display surface
type Handler struct {
	service           *Service
	connectionManager *ConnectionManager
}

// NewHandler creates a new display handler
func NewHandler(service *Service, cm *ConnectionManager) *Handler {
	return &Handler{
		service:           service,
		connectionManager: cm,
	}
}

// RegisterRoutes registers the display routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/display/state", h.HandleState)
	mux.HandleFunc("GET /ws/display", h.HandleConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleStats)
}

// HandleState returns the current view
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.View())
}

// HandleConnection upgrades to a WebSocket that receives the view on connect
// and after every change
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
		// Upgrade has already replied on failure
		return
	}
}

// HandleStats returns statistics about active connections
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		TotalConnections: h.connectionManager.ConnectionCount(),
		VisibleTeams:     len(h.service.View().Teams),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
