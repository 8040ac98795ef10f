package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/easelhq/easel/internal/store/core"
	"github.com/easelhq/easel/internal/store/memory"
	"github.com/easelhq/easel/internal/store/pg"
)

type Config struct {
	DSN      string
	Postgres struct {
		MaxConns, MinConns int
		ConnMaxLifetime    string
	}
}

// Open selecciona el backend según el DSN: vacío o "memory" abre el
// repositorio en memoria (dev/tests), cualquier otra cosa es Postgres.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	switch {
	case dsn == "" || dsn == "memory":
		return memory.New(), nil
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return pg.New(ctx, dsn, pg.Cfg{
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unsupported storage dsn: %q", cfg.DSN)
	}
}
