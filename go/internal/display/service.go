package display

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/models"
	"github.com/mcdev12/gameboard/go/internal/teamstate"
)

// Service pushes the rendered view to display clients whenever the local
// snapshot changes
type Service struct {
	store             *teamstate.Store
	connectionManager *ConnectionManager
}

// NewService creates a display service over store
func NewService(store *teamstate.Store, cm *ConnectionManager) *Service {
	return &Service{
		store:             store,
		connectionManager: cm,
	}
}

// Snapshot returns the current registry
func (s *Service) Snapshot() models.Registry {
	return s.store.Snapshot()
}

// View renders the current snapshot
func (s *Service) View() View {
	return BuildView(s.store.Snapshot())
}

// Run broadcasts the current view and then every update until ctx is done
func (s *Service) Run(ctx context.Context) {
	sub := s.store.Subscribe()
	defer sub.Close()

	go s.connectionManager.Start(ctx)

	s.publish(s.store.Snapshot())
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("display service stopping")
			return
		case r, ok := <-sub.C():
			if !ok {
				return
			}
			s.publish(r)
		}
	}
}

func (s *Service) publish(r models.Registry) {
	payload, err := json.Marshal(BuildView(r))
	if err != nil {
		log.Error().Err(err).Msg("failed to encode display view")
		return
	}
	s.connectionManager.Broadcast(payload)
}
