package controllers

import (
	"net/http"
	"strings"

	"github.com/easelhq/easel/internal/entities"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/http/middlewares"
	"github.com/easelhq/easel/internal/observability/logger"
)

// ImagesController es dueño del subárbol /v1/images, incluyendo las
// anotaciones anidadas.
type ImagesController struct {
	svc *entities.Services
}

func NewImagesController(svc *entities.Services) *ImagesController {
	return &ImagesController{svc: svc}
}

// Las mutaciones de anotaciones llevan project_id en el cuerpo porque el
// conteo por clase vive en la fila de la clase, bajo el proyecto.
type createAnnotationRequest struct {
	ProjectID string `json:"project_id"`
	entities.CreateAnnotationInput
}

type updateAnnotationRequest struct {
	ProjectID string `json:"project_id"`
	entities.UpdateAnnotationInput
}

type batchAnnotationsRequest struct {
	ProjectID string `json:"project_id"`
	entities.BatchCreateAnnotationsInput
}

func (c *ImagesController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/v1/images")
	switch {
	case len(segs) == 1:
		c.resource(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "annotations":
		c.annotations(w, r, segs[0])
	case len(segs) == 3 && segs[1] == "annotations" && segs[2] == "batch":
		c.batch(w, r, segs[0])
	case len(segs) == 3 && segs[1] == "annotations":
		c.annotation(w, r, segs[0], segs[2])
	default:
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	}
}

// resource maneja GET/PATCH/DELETE /v1/images/{id}
func (c *ImagesController) resource(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		img, err := c.svc.Images.Get(ctx, id)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, img)

	case http.MethodPatch:
		var in entities.UpdateImageInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		img, err := c.svc.Images.Update(ctx, id, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, img)

	case http.MethodDelete:
		if err := c.svc.Images.Delete(ctx, id); err != nil {
			logger.From(ctx).Error("borrado de imagen falló", logger.ImageID(id), logger.Err(err))
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

// annotations maneja GET/POST /v1/images/{id}/annotations
func (c *ImagesController) annotations(w http.ResponseWriter, r *http.Request, imageID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		anns, err := c.svc.Annotations.List(ctx, imageID)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{"annotations": anns})

	case http.MethodPost:
		var req createAnnotationRequest
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.ProjectID) == "" {
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("project_id"))
			return
		}
		ann, err := c.svc.Annotations.Create(ctx, middlewares.GetUserID(ctx), imageID, req.ProjectID, req.CreateAnnotationInput)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusCreated, ann)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// batch maneja POST /v1/images/{id}/annotations/batch
func (c *ImagesController) batch(w http.ResponseWriter, r *http.Request, imageID string) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req batchAnnotationsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("project_id"))
		return
	}
	anns, err := c.svc.Annotations.BatchCreate(ctx, middlewares.GetUserID(ctx), imageID, req.ProjectID, req.BatchCreateAnnotationsInput)
	if err != nil {
		// Un batch parcial ya escribió filas; el error manda igual.
		logger.From(ctx).Error("batch de anotaciones falló",
			logger.ImageID(imageID),
			logger.Count(len(anns)),
			logger.Err(err),
		)
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, map[string]any{"annotations": anns})
}

// annotation maneja GET/PATCH/DELETE /v1/images/{id}/annotations/{annotationID}
func (c *ImagesController) annotation(w http.ResponseWriter, r *http.Request, imageID, annotationID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		ann, err := c.svc.Annotations.Get(ctx, imageID, annotationID)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, ann)

	case http.MethodPatch:
		var req updateAnnotationRequest
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.ProjectID) == "" {
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("project_id"))
			return
		}
		ann, err := c.svc.Annotations.Update(ctx, imageID, annotationID, req.ProjectID, req.UpdateAnnotationInput)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, ann)

	case http.MethodDelete:
		projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
		if projectID == "" {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("project_id es requerido"))
			return
		}
		if err := c.svc.Annotations.Delete(ctx, imageID, annotationID, projectID); err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}
