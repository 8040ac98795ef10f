package push

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/observability/logger"
)

// RedisPublisher publica el payload en {prefix}conn:{id}. Pub/sub no puede
// distinguir "nadie hostea esa conexión" de "entregado", así que este
// adapter nunca reporta ErrGone; las filas stale se limpian sólo por el
// bookkeeping de disconnect.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

func (p *RedisPublisher) Send(ctx context.Context, connectionID string, data []byte) error {
	ch := p.prefix + "conn:" + connectionID
	if err := p.rdb.Publish(ctx, ch, data).Err(); err != nil {
		return fmt.Errorf("push: publish %s: %w", connectionID, err)
	}
	return nil
}

// RedisSubscriber es la mitad receptora: corre dentro de cmd/service,
// psubscribe a {prefix}conn:* y reenvía cada mensaje al hub local. Los
// mensajes de conexiones que no residen acá se descartan en silencio.
type RedisSubscriber struct {
	rdb    *redis.Client
	prefix string
	target Sender
	log    *zap.Logger
}

func NewRedisSubscriber(rdb *redis.Client, prefix string, target Sender) *RedisSubscriber {
	return &RedisSubscriber{
		rdb:    rdb,
		prefix: prefix,
		target: target,
		log:    logger.Named("push.redis"),
	}
}

func (s *RedisSubscriber) Run(ctx context.Context) error {
	pattern := s.prefix + "conn:*"
	pubsub := s.rdb.PSubscribe(ctx, pattern)
	defer func() { _ = pubsub.Close() }()

	s.log.Info("subscribed", logger.Key(pattern))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("push: subscription channel closed")
			}
			id := strings.TrimPrefix(msg.Channel, s.prefix+"conn:")
			if err := s.target.Send(ctx, id, []byte(msg.Payload)); err != nil {
				// ErrGone acá sólo significa que la conexión vive en otra
				// instancia (o ya se fue); no es nuestro mensaje.
				continue
			}
		}
	}
}
