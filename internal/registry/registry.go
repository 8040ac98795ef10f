// Package registry mantiene el mapeo durable conexión -> suscriptor.
//
// Quien registra (el session handler) y quien enumera (el dispatcher del
// stream) corren en procesos distintos sin memoria compartida, así que el
// registry es un cliente fino sobre la tabla única, nunca un set en memoria.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
)

type Registry struct {
	kv core.KV
}

func New(kv core.KV) *Registry {
	return &Registry{kv: kv}
}

// Register upsertea la fila CONNECTION#id. Es idempotente: registrar dos
// veces el mismo id deja una sola entrada lógica. Falla sólo si el store
// falla, y ese error es fatal para el intento de conexión.
func (r *Registry) Register(ctx context.Context, connectionID, userID string) error {
	if connectionID == "" {
		return fmt.Errorf("registry: empty connection id: %w", core.ErrInvalid)
	}
	key := domain.ConnectionKey(connectionID)
	it := &core.Item{
		PK: key,
		SK: key,
		Attrs: map[string]any{
			"PK":            key,
			"SK":            key,
			"connection_id": connectionID,
			"user_id":       userID,
			"connected_at":  time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := r.kv.Put(ctx, it); err != nil {
		return fmt.Errorf("registry: register %s: %w", connectionID, err)
	}
	return nil
}

// Deregister borra la fila si existe. Borrar un id desconocido no es error.
func (r *Registry) Deregister(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return fmt.Errorf("registry: empty connection id: %w", core.ErrInvalid)
	}
	key := domain.ConnectionKey(connectionID)
	if err := r.kv.Delete(ctx, key, key); err != nil {
		return fmt.Errorf("registry: deregister %s: %w", connectionID, err)
	}
	return nil
}

// ListAll enumera todas las conexiones registradas. Es un snapshot estilo
// scan: un ListAll en medio de una ráfaga de connects/disconnects puede
// reflejar cualquier subconjunto de ellos.
func (r *Registry) ListAll(ctx context.Context) ([]domain.Connection, error) {
	items, err := r.kv.Scan(ctx, domain.PrefixConnection)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	out := make([]domain.Connection, 0, len(items))
	for _, it := range items {
		c := domain.Connection{
			ConnectionID: str(it.Attrs["connection_id"]),
			UserID:       str(it.Attrs["user_id"]),
			ConnectedAt:  str(it.Attrs["connected_at"]),
		}
		if c.ConnectionID == "" {
			c.ConnectionID = domain.IDFromKey(it.PK)
		}
		out = append(out, c)
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
