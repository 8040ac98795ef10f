package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// MultiRedisLimiter comparte un cliente redis entre varios presupuestos de
// rate limiting. Cada combinación límite+ventana reusa el algoritmo
// fixed-window de RedisLimiter; los sub-limiters se cachean por configuración.
type MultiRedisLimiter struct {
	client *rdb.Client
	prefix string

	mu       sync.RWMutex
	limiters map[string]*RedisLimiter
}

func NewMultiRedisLimiter(client *rdb.Client, prefix string) *MultiRedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MultiRedisLimiter{
		client:   client,
		prefix:   prefix,
		limiters: make(map[string]*RedisLimiter),
	}
}

// AllowWithLimits consulta la clave contra el presupuesto límite/ventana.
func (m *MultiRedisLimiter) AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	configKey := fmt.Sprintf("%d:%s", limit, window.String())

	m.mu.RLock()
	limiter, ok := m.limiters[configKey]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		if limiter, ok = m.limiters[configKey]; !ok {
			limiter = NewRedisLimiter(m.client, m.prefix, limit, window)
			m.limiters[configKey] = limiter
		}
		m.mu.Unlock()
	}

	return limiter.Allow(ctx, key)
}

// WithLimits devuelve una vista con límites fijos que implementa Limiter.
// Así el router registra presupuestos distintos por clase de ruta sobre un
// mismo pool de claves redis.
func (m *MultiRedisLimiter) WithLimits(limit int, window time.Duration) Limiter {
	return fixedLimiter{multi: m, limit: limit, window: window}
}

type fixedLimiter struct {
	multi  *MultiRedisLimiter
	limit  int
	window time.Duration
}

func (f fixedLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return f.multi.AllowWithLimits(ctx, key, f.limit, f.window)
}
