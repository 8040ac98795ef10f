// El broadcaster: consume el changelog, clasifica cada mutación y empuja
// las notificaciones a los nodos que sostienen las conexiones. Corre como
// proceso aparte cuando el push es http o redis; con push local no hace
// falta, el consumidor va embebido en el service.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/easelhq/easel/internal/broadcast"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/http/middlewares"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/push"
	"github.com/easelhq/easel/internal/registry"
	"github.com/easelhq/easel/internal/store"
	"github.com/easelhq/easel/internal/stream"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfig  = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	path := *flagConfig
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" && fileExists("configs/config.yaml") {
		path = "configs/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()
	zl := logger.Named("stream-svc")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		zl.Fatal("storage no abre", logger.Err(err))
	}
	defer repo.Close()

	reg := registry.New(repo)

	// El sender define el transporte del fan-out y si tiene sentido limpiar
	// filas stale: sólo el push directo detecta conexiones idas.
	var (
		sender  push.Sender
		cleanup bool
		rdb     *redis.Client
	)
	switch cfg.Push.Kind {
	case "http":
		if cfg.Push.Endpoint == "" {
			zl.Fatal("push.endpoint es requerido con push http")
		}
		sender = push.NewHTTPClient(cfg.Push.Endpoint, cfg.PushTimeout())
		cleanup = true
	case "redis":
		addr := cfg.Cache.Redis.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		rdb = redis.NewClient(&redis.Options{Addr: addr, DB: cfg.Cache.Redis.DB})
		defer func() { _ = rdb.Close() }()
		sender = push.NewRedisPublisher(rdb, cfg.Push.ChannelPrefix)
	default:
		zl.Fatal("push local no usa broadcaster aparte; el consumidor va embebido en el service",
			logger.String("push_kind", cfg.Push.Kind),
		)
	}

	d := broadcast.New(reg, sender, cleanup)
	consumer := stream.NewConsumer(repo, d, cfg.Stream.Consumer, cfg.PollInterval(), cfg.Stream.BatchSize)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Run(gctx)
	})

	// Listener chico para probes y /metrics del proceso.
	if cfg.Metrics.Enabled {
		mh, merr := middlewares.RegisterMetrics(middlewares.MetricsConfig{})
		if merr != nil {
			zl.Fatal("metrics no registran", logger.Err(merr))
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", mh)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		srv := &http.Server{Addr: cfg.Server.InternalAddr, Handler: mux}

		g.Go(func() error {
			zl.Info("metrics escuchando", logger.String("addr", cfg.Server.InternalAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("broadcaster terminó con error", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	zl.Info("broadcaster detenido")
}

func storeConfig(cfg *config.Config) store.Config {
	sc := store.Config{DSN: cfg.Storage.DSN}
	sc.Postgres.MaxConns = cfg.Storage.Postgres.MaxConns
	sc.Postgres.MinConns = cfg.Storage.Postgres.MinConns
	sc.Postgres.ConnMaxLifetime = cfg.Storage.Postgres.ConnMaxLifetime
	return sc
}
