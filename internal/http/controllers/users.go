package controllers

import (
	"net/http"

	"github.com/easelhq/easel/internal/entities"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/http/middlewares"
)

// UsersController expone el perfil del usuario autenticado. El user_id
// nunca viaja en la URL: siempre sale de la identidad del request.
type UsersController struct {
	svc *entities.Services
}

func NewUsersController(svc *entities.Services) *UsersController {
	return &UsersController{svc: svc}
}

func (c *UsersController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/v1/users")
	switch {
	case len(segs) == 0:
		c.collection(w, r)
	case len(segs) == 1 && segs[0] == "me":
		c.me(w, r)
	default:
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	}
}

// collection maneja POST /v1/users: crea el perfil del sujeto del token.
func (c *UsersController) collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	ctx := r.Context()

	var in entities.CreateUserInput
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	u, err := c.svc.Users.Create(ctx, middlewares.GetUserID(ctx), in)
	if err != nil {
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, u)
}

// me maneja GET/PATCH /v1/users/me
func (c *UsersController) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		u, err := c.svc.Users.Get(ctx, middlewares.GetUserID(ctx))
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, u)

	case http.MethodPatch:
		var in entities.UpdateUserInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		u, err := c.svc.Users.Update(ctx, middlewares.GetUserID(ctx), in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, u)

	default:
		methodNotAllowed(w, "GET, PATCH")
	}
}
