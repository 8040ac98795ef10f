package entities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store/core"
)

// AnnotationService maneja las anotaciones de una imagen y mantiene el
// contador por clase (best-effort: un contador desfasado no es error).
type AnnotationService struct {
	kv      core.KV
	classes *ClassService
	log     *zap.Logger
}

func NewAnnotationService(kv core.KV, classes *ClassService) *AnnotationService {
	return &AnnotationService{
		kv:      kv,
		classes: classes,
		log:     logger.Named("entities.annotations"),
	}
}

type CreateAnnotationInput struct {
	ClassID  string          `json:"class_id"`
	Geometry json.RawMessage `json:"geometry"`
}

type UpdateAnnotationInput struct {
	ClassID  *string         `json:"class_id,omitempty"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

type BatchCreateAnnotationsInput struct {
	Annotations []CreateAnnotationInput `json:"annotations"`
}

func (in CreateAnnotationInput) validate() error {
	if in.ClassID == "" {
		return invalidf("class_id is required")
	}
	if _, err := domain.ParseGeometry(in.Geometry); err != nil {
		return invalidf("%v", err)
	}
	return nil
}

func (s *AnnotationService) Create(ctx context.Context, userID, imageID, projectID string, in CreateAnnotationInput) (*domain.Annotation, error) {
	if imageID == "" {
		return nil, invalidf("image_id is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	a := domain.Annotation{
		AnnotationID: uuid.New().String(),
		ImageID:      imageID,
		ClassID:      in.ClassID,
		Geometry:     in.Geometry,
		CreatedBy:    domain.UserKey(userID),
		CreatedAt:    nowRFC3339(),
	}

	pk := domain.AnnotationKey(a.AnnotationID)
	sk := domain.ImageKey(imageID)
	doc, err := attrs(&a, pk, sk)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: sk, Attrs: doc}); err != nil {
		return nil, fmt.Errorf("put annotation: %w", err)
	}

	s.bumpCount(ctx, projectID, in.ClassID, 1)
	return &a, nil
}

// BatchCreate valida todo el lote antes de escribir; una falla de
// persistencia a mitad de camino deja las anteriores escritas (cada una ya
// salió por el changelog).
func (s *AnnotationService) BatchCreate(ctx context.Context, userID, imageID, projectID string, in BatchCreateAnnotationsInput) ([]domain.Annotation, error) {
	if imageID == "" {
		return nil, invalidf("image_id is required")
	}
	if len(in.Annotations) == 0 {
		return nil, invalidf("annotations cannot be empty")
	}
	for i, a := range in.Annotations {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}

	out := make([]domain.Annotation, 0, len(in.Annotations))
	for _, a := range in.Annotations {
		created, err := s.Create(ctx, userID, imageID, projectID, a)
		if err != nil {
			return out, err
		}
		out = append(out, *created)
	}
	return out, nil
}

func (s *AnnotationService) Get(ctx context.Context, imageID, annotationID string) (*domain.Annotation, error) {
	if imageID == "" || annotationID == "" {
		return nil, invalidf("image_id and annotation_id are required")
	}
	it, err := s.kv.Get(ctx, domain.AnnotationKey(annotationID), domain.ImageKey(imageID))
	if err != nil {
		return nil, err
	}
	var a domain.Annotation
	if err := decode(it.Attrs, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AnnotationService) List(ctx context.Context, imageID string) ([]domain.Annotation, error) {
	if imageID == "" {
		return nil, invalidf("image_id is required")
	}
	items, err := s.kv.ReverseQuery(ctx, domain.ImageKey(imageID), domain.PrefixAnnotation)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Annotation, 0, len(items))
	for _, it := range items {
		var a domain.Annotation
		if err := decode(it.Attrs, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *AnnotationService) Update(ctx context.Context, imageID, annotationID, projectID string, in UpdateAnnotationInput) (*domain.Annotation, error) {
	cur, err := s.Get(ctx, imageID, annotationID)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if in.ClassID != nil {
		if *in.ClassID == "" {
			return nil, invalidf("class_id cannot be empty")
		}
		patch["class_id"] = *in.ClassID
	}
	if len(in.Geometry) > 0 {
		if _, err := domain.ParseGeometry(in.Geometry); err != nil {
			return nil, invalidf("%v", err)
		}
		var g any
		if err := json.Unmarshal(in.Geometry, &g); err != nil {
			return nil, err
		}
		patch["geometry"] = g
	}
	if len(patch) == 0 {
		return cur, nil
	}
	patch["updated_at"] = nowRFC3339()

	it, err := s.kv.Update(ctx, domain.AnnotationKey(annotationID), domain.ImageKey(imageID), patch)
	if err != nil {
		return nil, err
	}

	// Reclasificada: mover el contador de la clase vieja a la nueva.
	if in.ClassID != nil && *in.ClassID != cur.ClassID {
		s.bumpCount(ctx, projectID, cur.ClassID, -1)
		s.bumpCount(ctx, projectID, *in.ClassID, 1)
	}

	var a domain.Annotation
	if err := decode(it.Attrs, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AnnotationService) Delete(ctx context.Context, imageID, annotationID, projectID string) error {
	cur, err := s.Get(ctx, imageID, annotationID)
	if err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, domain.AnnotationKey(annotationID), domain.ImageKey(imageID)); err != nil {
		return err
	}
	s.bumpCount(ctx, projectID, cur.ClassID, -1)
	return nil
}

func (s *AnnotationService) bumpCount(ctx context.Context, projectID, classID string, delta int) {
	if projectID == "" || classID == "" {
		return
	}
	if err := s.classes.bump(ctx, projectID, classID, delta); err != nil {
		s.log.Debug("class count bump falló",
			logger.ProjectID(projectID),
			logger.ClassID(classID),
			zap.Int("delta", delta),
			logger.Err(err),
		)
	}
}
