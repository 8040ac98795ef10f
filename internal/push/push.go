// Package push define la frontera "empujar bytes a la conexión X" que usa el
// dispatcher, con adapters intercambiables: local (hub en proceso), http
// (receiver interno de cmd/service) y redis (pub/sub).
package push

import (
	"context"
	"errors"
)

// ErrGone indica que la conexión ya no existe del lado del transporte.
// Es la única falla de push que el dispatcher trata como definitiva.
var ErrGone = errors.New("push: connection gone")

// Sender empuja un payload ya serializado a una conexión puntual.
type Sender interface {
	Send(ctx context.Context, connectionID string, data []byte) error
}
