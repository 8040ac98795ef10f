package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/easelhq/easel/internal/cache"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/push"
	"github.com/easelhq/easel/internal/registry"
	"github.com/easelhq/easel/internal/ws"
)

// InternalController expone la superficie interna: el receptor de push
// entre nodos, la inspección del registro de conexiones y stats. Todas
// las rutas van detrás de la API key interna.
type InternalController struct {
	reg   *registry.Registry
	hub   *ws.Hub
	cache cache.Client
}

func NewInternalController(reg *registry.Registry, hub *ws.Hub, c cache.Client) *InternalController {
	return &InternalController{reg: reg, hub: hub, cache: c}
}

// Push maneja POST /internal/push/connections/{connectionID}, la mitad
// receptora del sender HTTP. El cuerpo es el payload ya serializado; acá no
// se interpreta, sólo se entrega al socket local. 410 avisa al nodo emisor
// que la fila del registro está stale.
func (c *InternalController) Push(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/internal/push")
	if len(segs) != 2 || segs[0] != "connections" {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	ctx := r.Context()
	connectionID := segs[1]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("cuerpo ilegible"))
		return
	}

	switch err := c.hub.Send(ctx, connectionID, body); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, push.ErrGone):
		httperrors.WriteError(w, httperrors.ErrConnectionGone)
	default:
		logger.From(ctx).Error("entrega por push falló",
			logger.ConnectionID(connectionID),
			logger.Err(err),
		)
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// Connections maneja GET /internal/connections y
// DELETE /internal/connections/{id}.
func (c *InternalController) Connections(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/internal/connections")
	ctx := r.Context()

	switch {
	case len(segs) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		conns, err := c.reg.ListAll(ctx)
		if err != nil {
			logger.From(ctx).Error("listado de conexiones falló", logger.Err(err))
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{
			"connections": conns,
			"count":       len(conns),
		})

	case len(segs) == 1:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, "DELETE")
			return
		}
		if err := c.reg.Deregister(ctx, segs[0]); err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	}
}

// Stats maneja GET /internal/stats
func (c *InternalController) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	ctx := r.Context()

	out := map[string]any{
		"local_connections": c.hub.Len(),
	}
	if c.cache != nil {
		if st, err := c.cache.Stats(ctx); err != nil {
			logger.From(ctx).Warn("stats de cache fallaron", logger.Err(err))
		} else {
			out["cache"] = st
		}
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
