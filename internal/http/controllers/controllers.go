// Package controllers expone la API REST sobre los servicios de entidades.
//
// Cada controller es dueño de un subárbol de rutas y resuelve los params
// de path a mano; el router sólo monta prefijos.
package controllers

import (
	"errors"
	"net/http"

	"github.com/easelhq/easel/internal/cache"
	"github.com/easelhq/easel/internal/entities"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/registry"
	"github.com/easelhq/easel/internal/store/core"
	"github.com/easelhq/easel/internal/ws"
)

// Deps son las dependencias externas que los controllers necesitan además
// de los servicios de entidades.
type Deps struct {
	Services *entities.Services
	KV       core.KV
	Cache    cache.Client
	Registry *registry.Registry
	Hub      *ws.Hub
}

// Controllers agrupa los controllers de la API pública y la interna.
type Controllers struct {
	Projects *ProjectsController
	Blocks   *BlocksController
	Images   *ImagesController
	Users    *UsersController
	Invites  *InvitesController
	Health   *HealthController
	Internal *InternalController
}

// New arma todos los controllers. Es el composition root de esta capa.
func New(d Deps) *Controllers {
	return &Controllers{
		Projects: NewProjectsController(d.Services),
		Blocks:   NewBlocksController(d.Services),
		Images:   NewImagesController(d.Services),
		Users:    NewUsersController(d.Services),
		Invites:  NewInvitesController(d.Services),
		Health:   NewHealthController(d.KV, d.Cache),
		Internal: NewInternalController(d.Registry, d.Hub, d.Cache),
	}
}

// mapStoreError traduce errores de la capa de entidades a AppError.
func mapStoreError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return httperrors.ErrNotFound.WithCause(err)
	case errors.Is(err, core.ErrInvalid):
		return httperrors.ErrBadRequest.WithDetail(err.Error())
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

// methodNotAllowed responde 405 con el header Allow.
func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
}
