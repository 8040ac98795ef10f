// Package app es el composition root: arma storage, cache, push, el
// consumidor del changelog y las dos superficies HTTP a partir de la
// configuración. Los cmd sólo cargan config, llaman New y levantan
// listeners.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/broadcast"
	"github.com/easelhq/easel/internal/cache"
	"github.com/easelhq/easel/internal/claims"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/email"
	"github.com/easelhq/easel/internal/entities"
	"github.com/easelhq/easel/internal/http/controllers"
	"github.com/easelhq/easel/internal/http/middlewares"
	"github.com/easelhq/easel/internal/http/router"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/push"
	"github.com/easelhq/easel/internal/rate"
	"github.com/easelhq/easel/internal/registry"
	"github.com/easelhq/easel/internal/store"
	"github.com/easelhq/easel/internal/store/core"
	"github.com/easelhq/easel/internal/store/pg"
	"github.com/easelhq/easel/internal/stream"
	"github.com/easelhq/easel/internal/ws"
)

// App es la aplicación armada. Los campos nil indican piezas que este
// proceso no corre (p.ej. Consumer cuando el fan-out vive en otro binario).
type App struct {
	// Handler sirve la superficie pública: REST, websocket y probes.
	Handler http.Handler

	// InternalHandler sirve la superficie interna: push entre nodos,
	// administración de conexiones y /metrics.
	InternalHandler http.Handler

	// Consumer del changelog; no nil sólo con push local (modo un nodo).
	Consumer *stream.Consumer

	// Subscriber de push por redis; no nil sólo con push redis.
	Subscriber *push.RedisSubscriber

	// Hub local de sesiones websocket.
	Hub *ws.Hub

	repo core.Repository
	rdb  *redis.Client
	log  *zap.Logger
}

// New arma la aplicación completa. El contexto sólo gobierna la
// inicialización (conexión a la base); no queda retenido.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Named("app")

	scfg := store.Config{DSN: cfg.Storage.DSN}
	scfg.Postgres.MaxConns = cfg.Storage.Postgres.MaxConns
	scfg.Postgres.MinConns = cfg.Storage.Postgres.MinConns
	scfg.Postgres.ConnMaxLifetime = cfg.Storage.Postgres.ConnMaxLifetime

	repo, err := store.Open(ctx, scfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	cacheClient, err := cache.New(cache.Config{
		Driver: cfg.Cache.Kind,
		Addr:   cfg.Cache.Redis.Addr,
		DB:     cfg.Cache.Redis.DB,
		Prefix: cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	// Cliente redis compartido para rate limiting y push pub/sub. El cache
	// maneja el suyo propio.
	var rdb *redis.Client
	if cfg.Rate.Enabled || cfg.Push.Kind == "redis" {
		addr := cfg.Cache.Redis.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		rdb = redis.NewClient(&redis.Options{Addr: addr, DB: cfg.Cache.Redis.DB})
	}

	var mailer email.Sender
	if cfg.SMTP.Host != "" {
		s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if cfg.SMTP.TLS != "" {
			s.TLSMode = cfg.SMTP.TLS
		}
		s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		mailer = s
	}

	svcs := entities.NewServices(entities.Deps{
		KV:       repo,
		Cache:    cacheClient,
		CacheTTL: cfg.CacheTTL(),
		Mailer:   mailer,
		Email: entities.EmailConfig{
			FrontendURL: cfg.Email.FrontendURL,
			ExpiresDays: cfg.Email.InviteExpiresDays,
		},
	})

	reg := registry.New(repo)
	hub := ws.NewHub()
	verifier := claims.NewVerifier(cfg.Auth.JWTSecret)

	wsDispatch := ws.NewDispatcher(svcs, cfg.Auth.Anonymous)
	wsHandler := ws.NewHandler(reg, hub, wsDispatch, verifier, ws.Config{
		ReadLimit:    cfg.WS.ReadLimit,
		WriteTimeout: cfg.WSWriteTimeout(),
		PingInterval: cfg.WSPingInterval(),
		PongTimeout:  cfg.WSPongTimeout(),
		Anonymous:    cfg.Auth.Anonymous,
	})

	app := &App{
		Hub:  hub,
		repo: repo,
		rdb:  rdb,
		log:  log,
	}

	// El modo de push decide quién corre el fan-out:
	//   local  => este proceso consume el changelog y entrega a su hub
	//   http   => un broadcaster aparte empuja a /internal/push
	//   redis  => un broadcaster aparte publica; acá sólo se suscribe
	switch cfg.Push.Kind {
	case "", "local":
		d := broadcast.New(reg, hub, true)
		app.Consumer = stream.NewConsumer(repo, d, cfg.Stream.Consumer, cfg.PollInterval(), cfg.Stream.BatchSize)
	case "http":
		// Nada que armar: el push entra por la superficie interna.
	case "redis":
		app.Subscriber = push.NewRedisSubscriber(rdb, cfg.Push.ChannelPrefix, hub)
	default:
		repo.Close()
		return nil, fmt.Errorf("unsupported push kind: %q", cfg.Push.Kind)
	}

	// Un solo pool de limiters con dos presupuestos: el general de la API y
	// el estricto del canje de invites.
	var limiter, redeemLimiter middlewares.RateLimiter
	if cfg.Rate.Enabled {
		ml := rate.NewMultiRedisLimiter(rdb, "rl:")
		limiter = limiterAdapter{ml.WithLimits(cfg.Rate.MaxRequests, cfg.RateWindow())}
		redeemLimiter = limiterAdapter{ml.WithLimits(cfg.Rate.RedeemMaxRequests, cfg.RateRedeemWindow())}
		log.Info("rate limiting activo",
			logger.Int("max_requests", cfg.Rate.MaxRequests),
			logger.String("window", cfg.Rate.Window),
			logger.Int("redeem_max_requests", cfg.Rate.RedeemMaxRequests),
		)
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		var pool func() *pgxpool.Pool
		if pgs, ok := repo.(*pg.Store); ok {
			pool = pgs.Pool
		}
		metricsHandler, err = middlewares.RegisterMetrics(middlewares.MetricsConfig{Pool: pool})
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	ctrls := controllers.New(controllers.Deps{
		Services: svcs,
		KV:       repo,
		Cache:    cacheClient,
		Registry: reg,
		Hub:      hub,
	})

	deps := router.Deps{
		Controllers:        ctrls,
		WS:                 wsHandler,
		Metrics:            metricsHandler,
		Verifier:           verifier,
		Anonymous:          cfg.Auth.Anonymous,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimiter:        limiter,
		RateWhitelist:      []string{"/healthz", "/readyz"},
		RedeemRateLimiter:  redeemLimiter,
		AdminAPIKey:        cfg.Admin.APIKey,
	}

	mux := http.NewServeMux()
	router.RegisterAPIRoutes(mux, deps)
	app.Handler = mux

	internalMux := http.NewServeMux()
	router.RegisterInternalRoutes(internalMux, deps)
	app.InternalHandler = internalMux

	return app, nil
}

// Close libera las conexiones de storage y redis. Idempotente no es; se
// llama una vez al final del shutdown.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("cierre de redis falló", logger.Err(err))
		}
	}
	a.repo.Close()
}

// Ping verifica el storage; lo usan los cmd para fallar temprano.
func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.repo.Ping(ctx)
}

// limiterAdapter traduce el resultado del limiter de redis al shape que
// consume el middleware. Son structs gemelos en paquetes distintos.
type limiterAdapter struct {
	l rate.Limiter
}

func (a limiterAdapter) Allow(ctx context.Context, key string) (middlewares.RateLimitResult, error) {
	res, err := a.l.Allow(ctx, key)
	if err != nil {
		return middlewares.RateLimitResult{}, err
	}
	return middlewares.RateLimitResult{
		Allowed:     res.Allowed,
		Remaining:   res.Remaining,
		RetryAfter:  res.RetryAfter,
		WindowTTL:   res.WindowTTL,
		CurrentHits: res.CurrentHits,
	}, nil
}
