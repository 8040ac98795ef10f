package router

import "net/http"

// RegisterInternalRoutes monta la superficie interna: el receptor de push
// entre nodos, la administración del registro de conexiones y /metrics.
// Va en el listener interno, nunca en el público.
func RegisterInternalRoutes(mux *http.ServeMux, d Deps) {
	c := d.Controllers

	mux.Handle("/internal/push/", d.internalChain(http.HandlerFunc(c.Internal.Push)))
	mux.Handle("/internal/connections", d.internalChain(http.HandlerFunc(c.Internal.Connections)))
	mux.Handle("/internal/connections/", d.internalChain(http.HandlerFunc(c.Internal.Connections)))
	mux.Handle("/internal/stats", d.internalChain(http.HandlerFunc(c.Internal.Stats)))

	if d.Metrics != nil {
		mux.Handle("/metrics", d.bare(d.Metrics))
	}

	// Probes también acá: el listener interno es el que ven los operadores.
	mux.Handle("/healthz", d.bare(http.HandlerFunc(c.Health.Healthz)))
	mux.Handle("/readyz", d.bare(http.HandlerFunc(c.Health.Readyz)))
}
