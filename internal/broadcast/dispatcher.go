// Package broadcast implementa el fan-out best-effort de notificaciones
// hacia todas las conexiones registradas.
package broadcast

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/metrics"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/push"
	"github.com/easelhq/easel/internal/registry"
	"github.com/easelhq/easel/internal/stream"
)

// Dispatcher serializa una notificación una sola vez y la empuja a cada
// conexión vigente. Las fallas por conexión se aíslan: una entrega caída
// no corta el resto del fan-out.
type Dispatcher struct {
	reg     *registry.Registry
	sender  push.Sender
	cleanup bool
	log     *zap.Logger
}

// New arma un dispatcher. Con cleanup activo, una conexión que el sender
// reporta como ida (push.ErrGone) se da de baja del registry en el momento.
func New(reg *registry.Registry, sender push.Sender, cleanup bool) *Dispatcher {
	return &Dispatcher{
		reg:     reg,
		sender:  sender,
		cleanup: cleanup,
		log:     logger.Named("broadcast"),
	}
}

// Broadcast entrega n a todas las conexiones registradas.
//
// Si el listado del registry falla no hay a quién entregar y el broadcast
// se aborta con error. Después de eso el resultado es siempre nil: cada
// entrega es best-effort y su falla sólo se loguea.
func (d *Dispatcher) Broadcast(ctx context.Context, n *stream.Notification) error {
	data, err := n.Wire()
	if err != nil {
		return err
	}

	conns, err := d.reg.ListAll(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		metrics.BroadcastFanoutLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	for _, conn := range conns {
		err := d.sender.Send(ctx, conn.ConnectionID, data)
		if err == nil {
			metrics.BroadcastDeliveriesTotal.WithLabelValues("ok").Inc()
			continue
		}

		if errors.Is(err, push.ErrGone) {
			metrics.BroadcastDeliveriesTotal.WithLabelValues("gone").Inc()
			d.log.Info("conexión ida, limpiando",
				logger.ConnectionID(conn.ConnectionID),
				logger.NotificationType(n.Type),
			)
			if d.cleanup {
				if derr := d.reg.Deregister(ctx, conn.ConnectionID); derr != nil {
					d.log.Warn("baja de conexión ida falló",
						logger.ConnectionID(conn.ConnectionID),
						logger.Err(derr),
					)
				}
			}
			continue
		}

		metrics.BroadcastDeliveriesTotal.WithLabelValues("failed").Inc()
		d.log.Warn("entrega falló",
			logger.ConnectionID(conn.ConnectionID),
			logger.NotificationType(n.Type),
			logger.Err(err),
		)
	}
	return nil
}
