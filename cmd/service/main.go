// El binario principal: sirve la API REST, las conexiones websocket y la
// superficie interna. Con push local además corre el consumidor del
// changelog, así un solo proceso alcanza para dev y despliegues chicos.
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
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/easelhq/easel/internal/app"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/observability/logger"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" && fileExists("configs/config.yaml") {
		path = "configs/config.yaml"
	}
	return config.Load(path)
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

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer func() { _ = logger.Sync() }()
	zl := logger.Named("service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		zl.Fatal("wiring falló", logger.Err(err))
	}
	defer a.Close()

	if err := a.Ping(ctx); err != nil {
		zl.Fatal("storage no responde", logger.Err(err))
	}

	public := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Handler,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	internal := &http.Server{
		Addr:    cfg.Server.InternalAddr,
		Handler: a.InternalHandler,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Info("api escuchando", logger.String("addr", cfg.Server.Addr))
		if err := public.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		zl.Info("superficie interna escuchando", logger.String("addr", cfg.Server.InternalAddr))
		if err := internal.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.Consumer != nil {
		g.Go(func() error {
			return a.Consumer.Run(gctx)
		})
	}
	if a.Subscriber != nil {
		g.Go(func() error {
			return a.Subscriber.Run(gctx)
		})
	}

	// Apagado: cancelación (señal o falla de un listener) dispara el
	// shutdown ordenado de ambos servers.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		if err := public.Shutdown(shutdownCtx); err != nil {
			zl.Warn("shutdown de api falló", logger.Err(err))
		}
		if err := internal.Shutdown(shutdownCtx); err != nil {
			zl.Warn("shutdown interno falló", logger.Err(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("proceso terminó con error", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	zl.Info("proceso detenido", logger.String("at", time.Now().Format(time.RFC3339)))
}
