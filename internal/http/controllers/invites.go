package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/easelhq/easel/internal/entities"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/http/middlewares"
	"github.com/easelhq/easel/internal/observability/logger"
)

// InvitesController es dueño de /v1/invites: creación, consulta y canje.
type InvitesController struct {
	svc *entities.Services
}

func NewInvitesController(svc *entities.Services) *InvitesController {
	return &InvitesController{svc: svc}
}

func (c *InvitesController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/v1/invites")
	switch {
	case len(segs) == 0:
		c.collection(w, r)
	case len(segs) == 1:
		c.resource(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "redeem":
		c.redeem(w, r, segs[0])
	default:
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	}
}

// collection maneja POST /v1/invites
func (c *InvitesController) collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	ctx := r.Context()

	var in entities.CreateInviteInput
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	inv, err := c.svc.Invites.Create(ctx, middlewares.GetUserID(ctx), in)
	if err != nil {
		httperrors.WriteError(w, mapInviteError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, inv)
}

// resource maneja GET /v1/invites/{code}
func (c *InvitesController) resource(w http.ResponseWriter, r *http.Request, code string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	inv, err := c.svc.Invites.Get(r.Context(), code)
	if err != nil {
		httperrors.WriteError(w, mapInviteError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, inv)
}

// redeem maneja POST /v1/invites/{code}/redeem: valida el código contra el
// email y lo marca usado. El canje es de un solo tiro.
func (c *InvitesController) redeem(w http.ResponseWriter, r *http.Request, code string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	ctx := r.Context()

	var req struct {
		Email string `json:"email"`
	}
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email"))
		return
	}

	if err := c.svc.Invites.Validate(ctx, code, req.Email); err != nil {
		httperrors.WriteError(w, mapInviteError(err))
		return
	}
	if err := c.svc.Invites.MarkUsed(ctx, code); err != nil {
		logger.From(ctx).Error("canje de invite falló", logger.Key(code), logger.Err(err))
		httperrors.WriteError(w, mapInviteError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"status": "used"})
}

// mapInviteError traduce los sentinels del servicio de invites; el resto
// cae en el mapeo genérico del store.
func mapInviteError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, entities.ErrInviteNotFound):
		return httperrors.ErrNotFound.WithCause(err)
	case errors.Is(err, entities.ErrInviteUsed):
		return httperrors.ErrInviteUsed
	case errors.Is(err, entities.ErrInviteExpired):
		return httperrors.ErrInviteExpired
	case errors.Is(err, entities.ErrInviteEmail):
		return httperrors.ErrInviteEmailMismatch
	default:
		return mapStoreError(err)
	}
}
