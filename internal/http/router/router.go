// Package router arma las rutas del servicio y sus middleware chains.
// Es el único lugar donde se decide qué middleware envuelve qué ruta.
package router

import (
	"net/http"

	"github.com/easelhq/easel/internal/claims"
	"github.com/easelhq/easel/internal/http/controllers"
	mw "github.com/easelhq/easel/internal/http/middlewares"
)

// Deps contiene todo lo que el router necesita para montar rutas.
type Deps struct {
	Controllers *controllers.Controllers

	// WS es el handler de upgrade websocket; nil lo deja sin montar.
	WS http.Handler

	// Metrics es el handler de /metrics (promhttp); nil lo deja sin montar.
	Metrics http.Handler

	Verifier  *claims.Verifier
	Anonymous string

	CORSAllowedOrigins []string

	// RateLimiter opcional; nil desactiva el rate limiting.
	RateLimiter   mw.RateLimiter
	RateWhitelist []string

	// RedeemRateLimiter aplica el presupuesto estricto donde la clave de la
	// ruta se puede adivinar (canje de invites). Nil cae a RateLimiter.
	RedeemRateLimiter mw.RateLimiter

	// AdminAPIKey protege la superficie interna. Vacía = sin guard (dev).
	AdminAPIKey string
}

// base arma los middleware comunes a toda la API pública. El limiter varía
// por clase de ruta.
func (d Deps) base(limiter mw.RateLimiter) []mw.Middleware {
	chain := []mw.Middleware{
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithCORS(d.CORSAllowedOrigins),
		mw.WithSecurityHeaders(),
	}
	if limiter != nil {
		chain = append(chain, mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:   limiter,
			Whitelist: d.RateWhitelist,
		}))
	}
	return chain
}

// public arma el chain estándar de la API: infra, identidad permisiva,
// logging y métricas. La identidad nunca rechaza acá; el sujeto anónimo
// entra con el sentinel configurado.
func (d Deps) public(h http.Handler) http.Handler {
	chain := append(d.base(d.RateLimiter),
		mw.WithIdentity(d.Verifier, d.Anonymous),
		mw.WithLogging(),
		mw.WithMetrics(),
	)
	return mw.Chain(h, chain...)
}

// authed es public más el guard que rechaza al sujeto anónimo.
func (d Deps) authed(h http.Handler) http.Handler {
	chain := append(d.base(d.RateLimiter),
		mw.WithIdentity(d.Verifier, d.Anonymous),
		mw.RequireIdentity(d.Anonymous),
		mw.WithLogging(),
		mw.WithMetrics(),
	)
	return mw.Chain(h, chain...)
}

// redeem es public con el presupuesto estricto de rate limiting.
func (d Deps) redeem(h http.Handler) http.Handler {
	limiter := d.RedeemRateLimiter
	if limiter == nil {
		limiter = d.RateLimiter
	}
	chain := append(d.base(limiter),
		mw.WithIdentity(d.Verifier, d.Anonymous),
		mw.WithLogging(),
		mw.WithMetrics(),
	)
	return mw.Chain(h, chain...)
}

// ws deja el chain mínimo: el handler de websocket hace su propio logging
// de ciclo de vida y sus propias métricas, y el request dura lo que dure
// la conexión, así que no pasa por WithMetrics.
func (d Deps) ws(h http.Handler) http.Handler {
	return mw.Chain(h,
		mw.WithRecover(),
		mw.WithRequestID(),
	)
}

// bare es sólo recover + request id, para health checks y /metrics.
func (d Deps) bare(h http.Handler) http.Handler {
	return mw.Chain(h,
		mw.WithRecover(),
		mw.WithRequestID(),
	)
}

// internalChain protege la superficie interna con la API key.
func (d Deps) internalChain(h http.Handler) http.Handler {
	return mw.Chain(h,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.RequireAPIKey(d.AdminAPIKey),
		mw.WithLogging(),
	)
}
