package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/entities"
	"github.com/easelhq/easel/internal/metrics"
	"github.com/easelhq/easel/internal/observability/logger"
)

// Acciones reconocidas. El set es cerrado: cualquier otro valor de action
// es un error de cliente.
const (
	ActionCreateProject          = "create_project"
	ActionUpdateProject          = "update_project"
	ActionDeleteProject          = "delete_project"
	ActionCreateBlock            = "create_block"
	ActionUpdateBlock            = "update_block"
	ActionDeleteBlock            = "delete_block"
	ActionCreateImage            = "create_image"
	ActionUpdateImage            = "update_image"
	ActionDeleteImage            = "delete_image"
	ActionCreateClass            = "create_class"
	ActionUpdateClass            = "update_class"
	ActionDeleteClass            = "delete_class"
	ActionCreateAnnotation       = "create_annotation"
	ActionUpdateAnnotation       = "update_annotation"
	ActionDeleteAnnotation       = "delete_annotation"
	ActionBatchCreateAnnotations = "batch_create_annotations"
)

var knownActions = map[string]struct{}{
	ActionCreateProject:          {},
	ActionUpdateProject:          {},
	ActionDeleteProject:          {},
	ActionCreateBlock:            {},
	ActionUpdateBlock:            {},
	ActionDeleteBlock:            {},
	ActionCreateImage:            {},
	ActionUpdateImage:            {},
	ActionDeleteImage:            {},
	ActionCreateClass:            {},
	ActionUpdateClass:            {},
	ActionDeleteClass:            {},
	ActionCreateAnnotation:       {},
	ActionUpdateAnnotation:       {},
	ActionDeleteAnnotation:       {},
	ActionBatchCreateAnnotations: {},
}

// Envelope es el sobre de todo mensaje entrante: la acción más los campos
// de la entidad aplanados al tope.
type Envelope struct {
	Action string `json:"action"`
}

// errMissing replica el formato de error que los clientes ya parsean.
func errMissing(field string) error {
	return fmt.Errorf("Missing %s", field)
}

// Parámetros tipados por acción. Cada uno decodifica el mensaje completo
// (los ids de ruteo más el cuerpo embebido) y valida sus requeridos.

type updateProjectParams struct {
	ProjectID string `json:"project_id"`
	entities.UpdateProjectInput
}

type deleteProjectParams struct {
	ProjectID string `json:"project_id"`
}

type createBlockParams struct {
	ProjectID string `json:"project_id"`
	entities.CreateBlockInput
}

type updateBlockParams struct {
	BlockID string `json:"block_id"`
	entities.UpdateBlockInput
}

type deleteBlockParams struct {
	BlockID string `json:"block_id"`
}

type createImageParams struct {
	BlockID string `json:"block_id"`
	entities.CreateImageInput
}

type updateImageParams struct {
	ImageID string `json:"image_id"`
	entities.UpdateImageInput
}

type deleteImageParams struct {
	ImageID string `json:"image_id"`
}

type createClassParams struct {
	ProjectID string `json:"project_id"`
	entities.CreateClassInput
}

type updateClassParams struct {
	ProjectID string `json:"project_id"`
	ClassID   string `json:"class_id"`
	entities.UpdateClassInput
}

type deleteClassParams struct {
	ProjectID string `json:"project_id"`
	ClassID   string `json:"class_id"`
}

type createAnnotationParams struct {
	ImageID   string `json:"image_id"`
	ProjectID string `json:"project_id"`
	entities.CreateAnnotationInput
}

type updateAnnotationParams struct {
	ImageID      string `json:"image_id"`
	AnnotationID string `json:"annotation_id"`
	ProjectID    string `json:"project_id"`
	entities.UpdateAnnotationInput
}

type deleteAnnotationParams struct {
	ImageID      string `json:"image_id"`
	AnnotationID string `json:"annotation_id"`
	ProjectID    string `json:"project_id"`
}

type batchCreateAnnotationsParams struct {
	ImageID   string `json:"image_id"`
	ProjectID string `json:"project_id"`
	entities.BatchCreateAnnotationsInput
}

// Dispatcher rutea mensajes de acción hacia los servicios de entidades.
// El resultado que retorna es la respuesta al emisor; el fan-out a los
// demás sale solo, por el changelog.
type Dispatcher struct {
	svc  *entities.Services
	anon string
	log  *zap.Logger
}

// NewDispatcher arma el dispatcher. anon es la identidad sentinel de las
// sesiones sin token.
func NewDispatcher(svc *entities.Services, anon string) *Dispatcher {
	return &Dispatcher{svc: svc, anon: anon, log: logger.Named("ws.dispatch")}
}

// Dispatch decodifica el sobre, valida los requeridos de la acción y llama
// al servicio. Retorna el documento de respuesta para el emisor (nil para
// deletes) o un error de cliente.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("Invalid message format: %v", err)
	}
	if env.Action == "" {
		return nil, errors.New("Missing action")
	}

	// Sesión anónima: el mensaje puede traer la identidad en el cuerpo.
	if userID == d.anon || userID == "" {
		var ident struct {
			UserID string `json:"user_id"`
		}
		if json.Unmarshal(raw, &ident) == nil && ident.UserID != "" {
			userID = ident.UserID
		}
	}

	d.log.Info("acción recibida", logger.Action(env.Action), logger.UserID(userID))

	result, err := d.route(ctx, env.Action, userID, raw)

	// La cardinalidad del label viene acotada por el set cerrado de
	// acciones, no por lo que mande el cliente.
	label := env.Action
	if _, ok := knownActions[label]; !ok {
		label = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.WSMessagesTotal.WithLabelValues(label, outcome).Inc()

	return result, err
}

func (d *Dispatcher) route(ctx context.Context, action, userID string, raw []byte) (any, error) {
	switch action {
	case ActionCreateProject:
		var in entities.CreateProjectInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, err
		}
		return d.svc.Projects.Create(ctx, userID, in)

	case ActionUpdateProject:
		var p updateProjectParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return d.svc.Projects.Update(ctx, p.ProjectID, p.UpdateProjectInput)

	case ActionDeleteProject:
		var p deleteProjectParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return nil, d.svc.Projects.Delete(ctx, p.ProjectID)

	case ActionCreateBlock:
		var p createBlockParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return d.svc.Blocks.Create(ctx, p.ProjectID, p.CreateBlockInput)

	case ActionUpdateBlock:
		var p updateBlockParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.BlockID == "" {
			return nil, errMissing("block_id")
		}
		return d.svc.Blocks.Update(ctx, p.BlockID, p.UpdateBlockInput)

	case ActionDeleteBlock:
		var p deleteBlockParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.BlockID == "" {
			return nil, errMissing("block_id")
		}
		return nil, d.svc.Blocks.Delete(ctx, p.BlockID)

	case ActionCreateImage:
		var p createImageParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.BlockID == "" {
			return nil, errMissing("block_id")
		}
		return d.svc.Images.Create(ctx, p.BlockID, p.CreateImageInput)

	case ActionUpdateImage:
		var p updateImageParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ImageID == "" {
			return nil, errMissing("image_id")
		}
		return d.svc.Images.Update(ctx, p.ImageID, p.UpdateImageInput)

	case ActionDeleteImage:
		var p deleteImageParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ImageID == "" {
			return nil, errMissing("image_id")
		}
		return nil, d.svc.Images.Delete(ctx, p.ImageID)

	case ActionCreateClass:
		var p createClassParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return d.svc.Classes.Create(ctx, p.ProjectID, p.CreateClassInput)

	case ActionUpdateClass:
		var p updateClassParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		if p.ClassID == "" {
			return nil, errMissing("class_id")
		}
		return d.svc.Classes.Update(ctx, p.ProjectID, p.ClassID, p.UpdateClassInput)

	case ActionDeleteClass:
		var p deleteClassParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		if p.ClassID == "" {
			return nil, errMissing("class_id")
		}
		return nil, d.svc.Classes.Delete(ctx, p.ProjectID, p.ClassID)

	case ActionCreateAnnotation:
		var p createAnnotationParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ImageID == "" {
			return nil, errMissing("image_id")
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return d.svc.Annotations.Create(ctx, userID, p.ImageID, p.ProjectID, p.CreateAnnotationInput)

	case ActionUpdateAnnotation:
		var p updateAnnotationParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ImageID == "" {
			return nil, errMissing("image_id")
		}
		if p.AnnotationID == "" {
			return nil, errMissing("annotation_id")
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return d.svc.Annotations.Update(ctx, p.ImageID, p.AnnotationID, p.ProjectID, p.UpdateAnnotationInput)

	case ActionDeleteAnnotation:
		var p deleteAnnotationParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ImageID == "" {
			return nil, errMissing("image_id")
		}
		if p.AnnotationID == "" {
			return nil, errMissing("annotation_id")
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return nil, d.svc.Annotations.Delete(ctx, p.ImageID, p.AnnotationID, p.ProjectID)

	case ActionBatchCreateAnnotations:
		var p batchCreateAnnotationsParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ImageID == "" {
			return nil, errMissing("image_id")
		}
		if p.ProjectID == "" {
			return nil, errMissing("project_id")
		}
		return d.svc.Annotations.BatchCreate(ctx, userID, p.ImageID, p.ProjectID, p.BatchCreateAnnotationsInput)

	default:
		return nil, fmt.Errorf("Unknown action: %s", action)
	}
}

func decodeParams(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("Invalid message format: %v", err)
	}
	return nil
}
