package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy      bool      `json:"healthy"`
	Running      bool      `json:"bridge_running"`
	SignalActive bool      `json:"signal_active"`
	Loads        uint64    `json:"loads"`
	Misses       uint64    `json:"misses"`
	LastLoadTime time.Time `json:"last_load_time"`
	Errors       []string  `json:"errors"`
}

// HealthChecker reports whether a bridge is keeping its context up to date
type HealthChecker struct {
	bridge    *Bridge
	clock     clockwork.Clock
	threshold time.Duration // How long without a successful load before unhealthy
}

func NewHealthChecker(bridge *Bridge, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		bridge:    bridge,
		clock:     bridge.clock,
		threshold: threshold,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	stats := h.bridge.Stats()
	status := HealthStatus{
		Healthy:      true,
		Running:      stats.Running,
		SignalActive: stats.SignalActive,
		Loads:        stats.Loads,
		Misses:       stats.Misses,
		LastLoadTime: stats.LastLoad,
		Errors:       []string{},
	}

	if !stats.Running {
		status.Healthy = false
		status.Errors = append(status.Errors, "bridge not running")
	}

	// Nothing persisted yet is not a failure, but a stale snapshot is
	if !stats.LastLoad.IsZero() {
		if since := h.clock.Since(stats.LastLoad); since > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no successful load for %s", since.Round(time.Second)))
		}
	}

	return status
}

// ServeHTTP writes the health status as JSON
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}
