// Aplica las migraciones del esquema. Sin -dir usa las embebidas en el
// binario; con -dir lee *.sql de disco (útil durante desarrollo).
//
//	migrate [flags] [up|down] [steps]
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/easelhq/easel/internal/config"
	migrations "github.com/easelhq/easel/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		dir        = flag.String("dir", "", "directorio de migraciones en disco (default: embebidas)")
		dsnFlag    = flag.String("dsn", "", "DSN de postgres (override de la config)")
	)
	flag.Parse()

	action := "up"
	steps := 0
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}

	dsn := *dsnFlag
	if dsn == "" {
		path := *configPath
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			if _, err := os.Stat("configs/config.yaml"); err == nil {
				path = "configs/config.yaml"
			}
		}
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		dsn = cfg.Storage.DSN
	}
	if dsn == "" || dsn == "memory" {
		log.Fatal("el backend en memoria no lleva migraciones; configurá storage.dsn")
	}

	var fsys fs.FS = migrations.FS
	if *dir != "" {
		fsys = os.DirFS(*dir)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	switch action {
	case "up":
		files, err := listSQL(fsys, "_up.sql")
		if err != nil {
			log.Fatalf("list up: %v", err)
		}
		if len(files) == 0 {
			log.Println("sin migraciones *_up.sql; nada que hacer")
			return
		}
		sort.Strings(files)
		if steps > 0 && steps < len(files) {
			files = files[:steps]
		}
		log.Printf("aplicando %d migración(es) up...", len(files))
		for _, f := range files {
			if err := execSQL(ctx, pool, fsys, f); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
			log.Printf("  ok %s", f)
		}

	case "down":
		files, err := listSQL(fsys, "_down.sql")
		if err != nil {
			log.Fatalf("list down: %v", err)
		}
		if len(files) == 0 {
			log.Println("sin migraciones *_down.sql; nada que hacer")
			return
		}
		// Los down corren de la más nueva a la más vieja.
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
		if steps > 0 && steps < len(files) {
			files = files[:steps]
		}
		log.Printf("aplicando %d migración(es) down...", len(files))
		for _, f := range files {
			if err := execSQL(ctx, pool, fsys, f); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
			log.Printf("  ok %s", f)
		}

	default:
		log.Fatalf("acción desconocida %q (up|down)", action)
	}
}

func listSQL(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func execSQL(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, name string) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
