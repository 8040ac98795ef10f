package controllers

import (
	"net/http"

	"github.com/easelhq/easel/internal/entities"
	httperrors "github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/http/middlewares"
	"github.com/easelhq/easel/internal/observability/logger"
)

// ProjectsController es dueño del subárbol /v1/projects, incluyendo las
// colecciones anidadas de bloques y clases.
type ProjectsController struct {
	svc *entities.Services
}

func NewProjectsController(svc *entities.Services) *ProjectsController {
	return &ProjectsController{svc: svc}
}

func (c *ProjectsController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := helpers.PathSegments(r.URL.Path, "/v1/projects")
	switch {
	case len(segs) == 0:
		c.collection(w, r)
	case len(segs) == 1:
		c.resource(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "blocks":
		c.blocks(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "classes":
		c.classes(w, r, segs[0])
	case len(segs) == 3 && segs[1] == "classes":
		c.class(w, r, segs[0], segs[2])
	default:
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	}
}

// collection maneja GET/POST /v1/projects
func (c *ProjectsController) collection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		projects, err := c.svc.Projects.List(ctx, middlewares.GetUserID(ctx))
		if err != nil {
			logger.From(ctx).Error("listado de proyectos falló", logger.Err(err))
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{"projects": projects})

	case http.MethodPost:
		var in entities.CreateProjectInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		p, err := c.svc.Projects.Create(ctx, middlewares.GetUserID(ctx), in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusCreated, p)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// resource maneja GET/PATCH/DELETE /v1/projects/{id}
func (c *ProjectsController) resource(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		p, err := c.svc.Projects.Get(ctx, id)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, p)

	case http.MethodPatch:
		var in entities.UpdateProjectInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		p, err := c.svc.Projects.Update(ctx, id, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		if err := c.svc.Projects.Delete(ctx, id); err != nil {
			logger.From(ctx).Error("borrado de proyecto falló", logger.ProjectID(id), logger.Err(err))
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

// blocks maneja GET/POST /v1/projects/{id}/blocks
func (c *ProjectsController) blocks(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		blocks, err := c.svc.Blocks.List(ctx, projectID)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{"blocks": blocks})

	case http.MethodPost:
		var in entities.CreateBlockInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		b, err := c.svc.Blocks.Create(ctx, projectID, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusCreated, b)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// classes maneja GET/POST /v1/projects/{id}/classes
func (c *ProjectsController) classes(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		classes, err := c.svc.Classes.List(ctx, projectID)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{"classes": classes})

	case http.MethodPost:
		var in entities.CreateClassInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		cl, err := c.svc.Classes.Create(ctx, projectID, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusCreated, cl)

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// class maneja GET/PATCH/DELETE /v1/projects/{id}/classes/{classID}
func (c *ProjectsController) class(w http.ResponseWriter, r *http.Request, projectID, classID string) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		cl, err := c.svc.Classes.Get(ctx, projectID, classID)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, cl)

	case http.MethodPatch:
		var in entities.UpdateClassInput
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		cl, err := c.svc.Classes.Update(ctx, projectID, classID, in)
		if err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, cl)

	case http.MethodDelete:
		if err := c.svc.Classes.Delete(ctx, projectID, classID); err != nil {
			httperrors.WriteError(w, mapStoreError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}
