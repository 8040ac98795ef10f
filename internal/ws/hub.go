// Package ws maneja las conexiones WebSocket: upgrade, ciclo de vida
// (register/deregister contra el registry durable) y el dispatch tipado de
// las acciones entrantes.
package ws

import (
	"context"
	"sync"

	"github.com/easelhq/easel/internal/push"
)

// Hub mantiene las sesiones vivas de este proceso e implementa push.Sender
// para entregarles frames. Una conexión que no está acá ya no existe:
// Send responde push.ErrGone y el dispatcher la limpia del registry.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// Len retorna cuántas sesiones están vivas.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Send implementa push.Sender.
func (h *Hub) Send(_ context.Context, connectionID string, data []byte) error {
	h.mu.RLock()
	s, ok := h.sessions[connectionID]
	h.mu.RUnlock()
	if !ok {
		return push.ErrGone
	}
	return s.enqueue(data)
}
