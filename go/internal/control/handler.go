package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/auth"
	"github.com/mcdev12/gameboard/go/internal/models"
)

// SessionCookie names the cookie carrying the session token
const SessionCookie = "gameboard_session"

// TeamApp defines what the handler needs from the team state app
type TeamApp interface {
	Snapshot() models.Registry
	RenameTeam(ctx context.Context, newName string) (models.Registry, error)
	CreateTeam(ctx context.Context, name string) (models.Registry, error)
	SelectTeam(ctx context.Context, name string) (models.Registry, error)
	SetHealth(ctx context.Context, team string, delta int) (models.Registry, error)
	SetResource(ctx context.Context, team string, kind models.ResourceKind, delta int) (models.Registry, error)
	ToggleEquipment(ctx context.Context, team string, kind models.ItemKind) (models.Registry, error)
	ToggleEnchantment(ctx context.Context, team string, kind models.EnchantmentKind) (models.Registry, error)
	HideTeam(ctx context.Context, team string) (models.Registry, error)
	UnhideTeam(ctx context.Context, team string) (models.Registry, error)
	ResetAll(ctx context.Context) (models.Registry, error)
}

// Handler serves the control surface API
type Handler struct {
	app           TeamApp
	authenticator auth.Authenticator
	sessions      *auth.Sessions
}

// NewHandler creates a new control handler
func NewHandler(app TeamApp, authenticator auth.Authenticator, sessions *auth.Sessions) *Handler {
	return &Handler{
		app:           app,
		authenticator: authenticator,
		sessions:      sessions,
	}
}

// RegisterRoutes registers the control routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/control/login", h.HandleLogin)
	mux.HandleFunc("POST /api/control/logout", h.HandleLogout)

	mux.Handle("GET /api/control/state", h.requireSession(h.HandleState))
	mux.Handle("GET /api/control/debug", h.requireSession(h.HandleDebug))
	mux.Handle("POST /api/control/teams", h.requireSession(h.HandleCreateTeam))
	mux.Handle("POST /api/control/select", h.requireSession(h.HandleSelectTeam))
	mux.Handle("POST /api/control/rename", h.requireSession(h.HandleRenameTeam))
	mux.Handle("POST /api/control/reset", h.requireSession(h.HandleReset))
	mux.Handle("POST /api/control/teams/{team}/health", h.requireSession(h.HandleHealth))
	mux.Handle("POST /api/control/teams/{team}/resources/{kind}", h.requireSession(h.HandleResource))
	mux.Handle("POST /api/control/teams/{team}/equipment/{kind}/toggle", h.requireSession(h.HandleToggleEquipment))
	mux.Handle("POST /api/control/teams/{team}/enchantments/{kind}/toggle", h.requireSession(h.HandleToggleEnchantment))
	mux.Handle("POST /api/control/teams/{team}/hide", h.requireSession(h.HandleHide))
	mux.Handle("POST /api/control/teams/{team}/unhide", h.requireSession(h.HandleUnhide))
}

// HandleLogin handles POST /api/control/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.authenticator.Authenticate(r.Context(), req.Secret); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("authentication failed")
		}
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}

	token, expiresAt := h.sessions.Issue()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("control session opened")
	writeJSON(w, http.StatusOK, NewStateResponse(h.app.Snapshot()))
}

// HandleLogout handles POST /api/control/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleState handles GET /api/control/state
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStateResponse(h.app.Snapshot()))
}

// HandleDebug handles GET /api/control/debug
func (h *Handler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewDebugResponse(h.app.Snapshot()))
}

// HandleCreateTeam handles POST /api/control/teams
func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, "create_team")(h.app.CreateTeam(r.Context(), strings.TrimSpace(req.Name)))
}

// HandleSelectTeam handles POST /api/control/select
func (h *Handler) HandleSelectTeam(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, "select_team")(h.app.SelectTeam(r.Context(), strings.TrimSpace(req.Name)))
}

// HandleRenameTeam handles POST /api/control/rename
func (h *Handler) HandleRenameTeam(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, "rename_team")(h.app.RenameTeam(r.Context(), strings.TrimSpace(req.Name)))
}

// HandleReset handles POST /api/control/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "reset_all")(h.app.ResetAll(r.Context()))
}

// HandleHealth handles POST /api/control/teams/{team}/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	var req DeltaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, "set_health")(h.app.SetHealth(r.Context(), r.PathValue("team"), req.Delta))
}

// HandleResource handles POST /api/control/teams/{team}/resources/{kind}
func (h *Handler) HandleResource(w http.ResponseWriter, r *http.Request) {
	kind := models.ResourceKind(r.PathValue("kind"))
	if _, ok := (models.Resources{}).Get(kind); !ok {
		writeError(w, http.StatusBadRequest, "unknown resource kind")
		return
	}
	var req DeltaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, "set_resource")(h.app.SetResource(r.Context(), r.PathValue("team"), kind, req.Delta))
}

// HandleToggleEquipment handles POST /api/control/teams/{team}/equipment/{kind}/toggle
func (h *Handler) HandleToggleEquipment(w http.ResponseWriter, r *http.Request) {
	kind := models.ItemKind(r.PathValue("kind"))
	if _, ok := (models.Equipment{}).Get(kind); !ok {
		writeError(w, http.StatusBadRequest, "unknown item kind")
		return
	}
	h.respond(w, "toggle_equipment")(h.app.ToggleEquipment(r.Context(), r.PathValue("team"), kind))
}

// HandleToggleEnchantment handles POST /api/control/teams/{team}/enchantments/{kind}/toggle
func (h *Handler) HandleToggleEnchantment(w http.ResponseWriter, r *http.Request) {
	kind := models.EnchantmentKind(r.PathValue("kind"))
	if _, ok := (models.Enchantments{}).Get(kind); !ok {
		writeError(w, http.StatusBadRequest, "unknown enchantment kind")
		return
	}
	h.respond(w, "toggle_enchantment")(h.app.ToggleEnchantment(r.Context(), r.PathValue("team"), kind))
}

// HandleHide handles POST /api/control/teams/{team}/hide
func (h *Handler) HandleHide(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "hide_team")(h.app.HideTeam(r.Context(), r.PathValue("team")))
}

// HandleUnhide handles POST /api/control/teams/{team}/unhide
func (h *Handler) HandleUnhide(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "unhide_team")(h.app.UnhideTeam(r.Context(), r.PathValue("team")))
}

// respond writes the outcome of a mutation
func (h *Handler) respond(w http.ResponseWriter, op string) func(models.Registry, error) {
	return func(reg models.Registry, err error) {
		if err != nil {
			log.Error().Err(err).Str("op", op).Msg("mutation not persisted")
			writeError(w, http.StatusInternalServerError, "failed to persist state")
			return
		}
		writeJSON(w, http.StatusOK, NewStateResponse(reg))
	}
}

func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || !h.sessions.Valid(cookie.Value) {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
