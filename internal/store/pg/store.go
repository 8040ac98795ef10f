package pg

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/easelhq/easel/internal/store/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ pool *pgxpool.Pool }

// Pool expone el pool interno para usos avanzados (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// PoolStats devuelve un snapshot del estado del pool (puede ser nil si el pool no está inicializado).
func (s *Store) PoolStats() *pgxpool.Stat {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Cfg es el tuning opcional del pool.
type Cfg struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, cfg Cfg) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Non-blocking startup: try to ping, but don't fail if it fails.
	// This allows the app to start even if DB is temporarily down.
	if err := pool.Ping(ctx); err != nil {
		log.Printf(`{"level":"warn","msg":"pg_pool_startup_ping_failed","err":"%v"}`, err)
	} else {
		log.Printf(`{"level":"info","msg":"pg_pool_ready","max_conns":%d}`, pcfg.MaxConns)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// ====================== ITEMS ======================

func (s *Store) Get(ctx context.Context, pk, sk string) (*core.Item, error) {
	if pk == "" || sk == "" {
		return nil, core.ErrInvalid
	}
	const q = `SELECT pk, sk, attrs FROM items WHERE pk = $1 AND sk = $2`
	var it core.Item
	err := s.pool.QueryRow(ctx, q, pk, sk).Scan(&it.PK, &it.SK, &it.Attrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) Find(ctx context.Context, pk string) (*core.Item, error) {
	if pk == "" {
		return nil, core.ErrInvalid
	}
	const q = `SELECT pk, sk, attrs FROM items WHERE pk = $1 ORDER BY sk LIMIT 1`
	var it core.Item
	err := s.pool.QueryRow(ctx, q, pk).Scan(&it.PK, &it.SK, &it.Attrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) Put(ctx context.Context, it *core.Item) error {
	if it == nil || it.PK == "" || it.SK == "" {
		return core.ErrInvalid
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before map[string]any
	err = tx.QueryRow(ctx, `SELECT attrs FROM items WHERE pk = $1 AND sk = $2 FOR UPDATE`, it.PK, it.SK).
		Scan(&before)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	const upsert = `
INSERT INTO items (pk, sk, attrs) VALUES ($1, $2, $3)
ON CONFLICT (pk, sk) DO UPDATE SET attrs = EXCLUDED.attrs`
	if _, err := tx.Exec(ctx, upsert, it.PK, it.SK, it.Attrs); err != nil {
		return err
	}

	op := core.OpInsert
	if before != nil {
		op = core.OpModify
	}
	if err := appendChange(ctx, tx, op, it.PK, it.SK, before, it.Attrs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, pk, sk string, patch map[string]any) (*core.Item, error) {
	if pk == "" || sk == "" {
		return nil, core.ErrInvalid
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before map[string]any
	err = tx.QueryRow(ctx, `SELECT attrs FROM items WHERE pk = $1 AND sk = $2 FOR UPDATE`, pk, sk).
		Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	after := make(map[string]any, len(before)+len(patch))
	for k, v := range before {
		after[k] = v
	}
	for k, v := range patch {
		after[k] = v
	}

	if _, err := tx.Exec(ctx, `UPDATE items SET attrs = $3 WHERE pk = $1 AND sk = $2`, pk, sk, after); err != nil {
		return nil, err
	}
	if err := appendChange(ctx, tx, core.OpModify, pk, sk, before, after); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &core.Item{PK: pk, SK: sk, Attrs: after}, nil
}

func (s *Store) Increment(ctx context.Context, pk, sk, attr string, delta int) (int, error) {
	if pk == "" || sk == "" || attr == "" {
		return 0, core.ErrInvalid
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before map[string]any
	err = tx.QueryRow(ctx, `SELECT attrs FROM items WHERE pk = $1 AND sk = $2 FOR UPDATE`, pk, sk).
		Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, core.ErrNotFound
		}
		return 0, err
	}

	cur := 0
	if v, ok := before[attr].(float64); ok {
		cur = int(v)
	}
	next := cur + delta

	after := make(map[string]any, len(before)+1)
	for k, v := range before {
		after[k] = v
	}
	after[attr] = next

	if _, err := tx.Exec(ctx, `UPDATE items SET attrs = $3 WHERE pk = $1 AND sk = $2`, pk, sk, after); err != nil {
		return 0, err
	}
	if err := appendChange(ctx, tx, core.OpModify, pk, sk, before, after); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	if pk == "" || sk == "" {
		return core.ErrInvalid
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before map[string]any
	err = tx.QueryRow(ctx, `DELETE FROM items WHERE pk = $1 AND sk = $2 RETURNING attrs`, pk, sk).
		Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Idempotente: nada que borrar, nada que registrar.
			return tx.Commit(ctx)
		}
		return err
	}
	if err := appendChange(ctx, tx, core.OpRemove, pk, sk, before, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Query(ctx context.Context, pk, skPrefix string) ([]core.Item, error) {
	if pk == "" {
		return nil, core.ErrInvalid
	}
	const q = `SELECT pk, sk, attrs FROM items WHERE pk = $1 AND sk LIKE $2 || '%' ORDER BY sk`
	rows, err := s.pool.Query(ctx, q, pk, skPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) ReverseQuery(ctx context.Context, sk, pkPrefix string) ([]core.Item, error) {
	if sk == "" {
		return nil, core.ErrInvalid
	}
	const q = `SELECT pk, sk, attrs FROM items WHERE sk = $1 AND pk LIKE $2 || '%' ORDER BY pk`
	rows, err := s.pool.Query(ctx, q, sk, pkPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) Scan(ctx context.Context, pkPrefix string) ([]core.Item, error) {
	if pkPrefix == "" {
		return nil, core.ErrInvalid
	}
	const q = `SELECT pk, sk, attrs FROM items WHERE pk LIKE $1 || '%' ORDER BY pk, sk`
	rows, err := s.pool.Query(ctx, q, pkPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]core.Item, error) {
	var out []core.Item
	for rows.Next() {
		var it core.Item
		if err := rows.Scan(&it.PK, &it.SK, &it.Attrs); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ====================== CHANGELOG ======================

func appendChange(ctx context.Context, tx pgx.Tx, op core.Operation, pk, sk string, before, after map[string]any) error {
	const q = `INSERT INTO changelog (op, pk, sk, before, after) VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.Exec(ctx, q, string(op), pk, sk, before, after)
	return err
}

func (s *Store) Changes(ctx context.Context, after int64, limit int) ([]core.ChangeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT seq, op, pk, sk, before, after, created_at
FROM changelog
WHERE seq > $1
ORDER BY seq
LIMIT $2`
	rows, err := s.pool.Query(ctx, q, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ChangeRecord
	for rows.Next() {
		var r core.ChangeRecord
		var op string
		if err := rows.Scan(&r.Seq, &op, &r.PK, &r.SK, &r.Before, &r.After, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Op = core.Operation(op)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LoadCursor(ctx context.Context, consumer string) (int64, error) {
	const q = `SELECT position FROM stream_cursors WHERE consumer = $1`
	var pos int64
	err := s.pool.QueryRow(ctx, q, consumer).Scan(&pos)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return pos, nil
}

func (s *Store) SaveCursor(ctx context.Context, consumer string, position int64) error {
	const q = `
INSERT INTO stream_cursors (consumer, position, updated_at) VALUES ($1, $2, now())
ON CONFLICT (consumer) DO UPDATE SET position = EXCLUDED.position, updated_at = now()`
	_, err := s.pool.Exec(ctx, q, consumer, position)
	return err
}

// ====================== MIGRACIONES ======================

func (s *Store) RunMigrations(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			name := strings.ToLower(e.Name())
			if strings.HasSuffix(name, "_up.sql") {
				files = append(files, dir+"/"+e.Name())
			}
		}
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
	}
	return nil
}

func (s *Store) RunMigrationsDown(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			name := strings.ToLower(e.Name())
			if strings.HasSuffix(name, "_down.sql") {
				files = append(files, dir+"/"+e.Name())
			}
		}
	}
	sort.Strings(files)
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
	}
	return nil
}
