package ws

import (
	"github.com/collab-code-editor/backend/internal/language"
	"github.com/collab-code-editor/backend/internal/state"
)

// Service wires the broadcast hub, the session state store, and the
// execution pipeline into the complete synchronization layer.
type Service struct {
	hub     *Hub
	handler *Handler
	store   *state.Store
}

// NewService creates the synchronization service.
func NewService(store *state.Store, registry *language.Registry, exec Executor) *Service {
	hub := NewHub()
	handler := NewHandler(hub, store, registry, exec)

	return &Service{
		hub:     hub,
		handler: handler,
		store:   store,
	}
}

// Handler returns the connection handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// Hub returns the participant registry.
func (s *Service) Hub() *Hub {
	return s.hub
}

// ClientCount returns the number of connected participants.
func (s *Service) ClientCount() int {
	return s.hub.ClientCount()
}

// Close disconnects every participant.
func (s *Service) Close() {
	s.hub.Close()
}
