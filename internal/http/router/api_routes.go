package router

import "net/http"

// RegisterAPIRoutes monta la superficie pública: la API REST de entidades,
// los health checks y el endpoint de websocket.
func RegisterAPIRoutes(mux *http.ServeMux, d Deps) {
	c := d.Controllers

	// Los patrones exactos y de subárbol van por separado para que el mux
	// no meta redirects 301 en la colección.
	mux.Handle("/v1/projects", d.public(c.Projects))
	mux.Handle("/v1/projects/", d.public(c.Projects))

	mux.Handle("/v1/blocks/", d.public(c.Blocks))
	mux.Handle("/v1/images/", d.public(c.Images))

	// El perfil siempre exige identidad real.
	mux.Handle("/v1/users", d.authed(c.Users))
	mux.Handle("/v1/users/", d.authed(c.Users))

	// Crear invites exige identidad; consultar y canjear son públicos
	// porque el invitado todavía no tiene cuenta. El canje entra por el
	// presupuesto estricto: los códigos se prueban por fuerza bruta.
	mux.Handle("/v1/invites", d.authed(c.Invites))
	mux.Handle("/v1/invites/", d.redeem(c.Invites))

	mux.Handle("/healthz", d.bare(http.HandlerFunc(c.Health.Healthz)))
	mux.Handle("/readyz", d.bare(http.HandlerFunc(c.Health.Readyz)))

	if d.WS != nil {
		mux.Handle("/ws", d.ws(d.WS))
	}
}
