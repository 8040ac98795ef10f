package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/metrics"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store/core"
)

// Broadcaster entrega una notificación ya clasificada a los recipientes
// registrados. La implementación vive en internal/broadcast.
type Broadcaster interface {
	Broadcast(ctx context.Context, n *Notification) error
}

// Consumer lee el changelog en orden, clasifica y despacha. Un solo consumer
// por nombre de cursor: el orden total del changelog sólo se preserva si
// nadie más avanza el mismo cursor.
type Consumer struct {
	changes  core.ChangeLog
	b        Broadcaster
	name     string
	interval time.Duration
	batch    int
	log      *zap.Logger
}

// NewConsumer arma un consumer sobre el changelog dado. name identifica el
// cursor persistido; interval y batch controlan el polling.
func NewConsumer(changes core.ChangeLog, b Broadcaster, name string, interval time.Duration, batch int) *Consumer {
	return &Consumer{
		changes:  changes,
		b:        b,
		name:     name,
		interval: interval,
		batch:    batch,
		log:      logger.Named("stream.consumer"),
	}
}

// Run sondea el changelog hasta que el contexto se cancele. Si un batch
// vino lleno, vuelve a leer de inmediato sin esperar el tick.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer iniciado",
		logger.String("cursor", c.name),
		logger.String("interval", c.interval.String()),
		logger.Int("batch", c.batch),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		n, err := c.RunOnce(ctx)
		if err != nil {
			c.log.Error("batch falló", logger.Err(err))
		}
		if n == c.batch {
			continue
		}

		select {
		case <-ctx.Done():
			c.log.Info("consumer detenido", logger.String("cursor", c.name))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce procesa un batch y devuelve cuántos registros leyó.
//
// Fallas por registro (clasificación o broadcast) se loguean y no frenan el
// batch; el cursor avanza hasta el último seq leído igual. Entrega
// at-most-once: un registro fallido no se reintenta.
func (c *Consumer) RunOnce(ctx context.Context) (int, error) {
	cursor, err := c.changes.LoadCursor(ctx, c.name)
	if err != nil {
		return 0, err
	}

	recs, err := c.changes.Changes(ctx, cursor, c.batch)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}

	for _, rec := range recs {
		n, err := Classify(rec)
		if err != nil {
			c.log.Error("registro descartado", logger.Seq(rec.Seq), logger.Err(err))
			metrics.StreamRecordsTotal.WithLabelValues("discarded").Inc()
			continue
		}
		if n == nil {
			metrics.StreamRecordsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if err := c.b.Broadcast(ctx, n); err != nil {
			c.log.Error("broadcast falló",
				logger.Seq(rec.Seq),
				logger.NotificationType(n.Type),
				logger.Err(err),
			)
			metrics.StreamRecordsTotal.WithLabelValues("failed").Inc()
			continue
		}
		metrics.StreamRecordsTotal.WithLabelValues("notified").Inc()
	}

	last := recs[len(recs)-1].Seq
	if err := c.changes.SaveCursor(ctx, c.name, last); err != nil {
		return len(recs), err
	}
	metrics.StreamCursorSeq.Set(float64(last))
	return len(recs), nil
}
