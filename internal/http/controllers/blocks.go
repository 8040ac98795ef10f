package controllers

import (
	"net/http"

	"github.com/easelhq/easel/internal/entities"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/observability/logger"
)

// BlocksController es dueño del subárbol /v1/blocks, incluyendo la
// colección anidada de imágenes.
type BlocksController struct {
	svc *entities.Services
}

func NewBlocksController(svc *entities.Services) *BlocksController {
	return &BlocksController{svc: svc}
}

func (c *BlocksController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/v1/blocks")
	switch {
	case len(segs) == 1:
		c.resource(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "images":
		c.images(w, r, segs[0])
	default:
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	}
}

// resource maneja GET/PATCH/DELETE /v1/blocks/{id}
func (c *BlocksController) resource(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		b, err := c.svc.Blocks.Get(ctx, id)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, b)

	case http.MethodPatch:
		var in entities.UpdateBlockInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		b, err := c.svc.Blocks.Update(ctx, id, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, b)

	case http.MethodDelete:
		if err := c.svc.Blocks.Delete(ctx, id); err != nil {
			logger.From(ctx).Error("borrado de bloque falló", logger.BlockID(id), logger.Err(err))
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

// images maneja GET/POST /v1/blocks/{id}/images
func (c *BlocksController) images(w http.ResponseWriter, r *http.Request, blockID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		images, err := c.svc.Images.List(ctx, blockID)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{"images": images})

	case http.MethodPost:
		var in entities.CreateImageInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		img, err := c.svc.Images.Create(ctx, blockID, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusCreated, img)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}
