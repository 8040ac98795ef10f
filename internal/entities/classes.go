package entities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
)

// ClassService maneja las clases de anotación de un proyecto. El campo
// count es un contador advisory que mueven las anotaciones.
type ClassService struct {
	kv core.KV
}

func NewClassService(kv core.KV) *ClassService {
	return &ClassService{kv: kv}
}

type CreateClassInput struct {
	Name       string          `json:"name"`
	Color      *string         `json:"color,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

type UpdateClassInput struct {
	Name       *string         `json:"name,omitempty"`
	Color      *string         `json:"color,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

func (s *ClassService) Create(ctx context.Context, projectID string, in CreateClassInput) (*domain.Class, error) {
	if projectID == "" {
		return nil, invalidf("project_id is required")
	}
	if in.Name == "" {
		return nil, invalidf("name is required")
	}

	c := domain.Class{
		ClassID:    uuid.New().String(),
		ProjectID:  projectID,
		Name:       in.Name,
		Color:      in.Color,
		Properties: in.Properties,
		Count:      0,
	}

	pk := domain.ClassKey(c.ClassID)
	sk := domain.ProjectKey(projectID)
	a, err := attrs(&c, pk, sk)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: sk, Attrs: a}); err != nil {
		return nil, fmt.Errorf("put class: %w", err)
	}
	return &c, nil
}

func (s *ClassService) Get(ctx context.Context, projectID, classID string) (*domain.Class, error) {
	if projectID == "" || classID == "" {
		return nil, invalidf("project_id and class_id are required")
	}
	it, err := s.kv.Get(ctx, domain.ClassKey(classID), domain.ProjectKey(projectID))
	if err != nil {
		return nil, err
	}
	var c domain.Class
	if err := decode(it.Attrs, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClassService) List(ctx context.Context, projectID string) ([]domain.Class, error) {
	if projectID == "" {
		return nil, invalidf("project_id is required")
	}
	items, err := s.kv.ReverseQuery(ctx, domain.ProjectKey(projectID), domain.PrefixClass)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Class, 0, len(items))
	for _, it := range items {
		var c domain.Class
		if err := decode(it.Attrs, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *ClassService) Update(ctx context.Context, projectID, classID string, in UpdateClassInput) (*domain.Class, error) {
	if projectID == "" || classID == "" {
		return nil, invalidf("project_id and class_id are required")
	}
	patch := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, invalidf("name cannot be empty")
		}
		patch["name"] = *in.Name
	}
	if in.Color != nil {
		patch["color"] = *in.Color
	}
	if len(in.Properties) > 0 {
		var p any
		if err := json.Unmarshal(in.Properties, &p); err != nil {
			return nil, invalidf("invalid properties")
		}
		patch["properties"] = p
	}
	if len(patch) == 0 {
		return s.Get(ctx, projectID, classID)
	}

	it, err := s.kv.Update(ctx, domain.ClassKey(classID), domain.ProjectKey(projectID), patch)
	if err != nil {
		return nil, err
	}
	var c domain.Class
	if err := decode(it.Attrs, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete borra la clase. Las anotaciones que la referencian quedan con el
// class_id colgado; no hay cascada acá.
func (s *ClassService) Delete(ctx context.Context, projectID, classID string) error {
	if projectID == "" || classID == "" {
		return invalidf("project_id and class_id are required")
	}
	return s.kv.Delete(ctx, domain.ClassKey(classID), domain.ProjectKey(projectID))
}

// bump mueve el contador advisory de la clase de forma atómica.
func (s *ClassService) bump(ctx context.Context, projectID, classID string, delta int) error {
	_, err := s.kv.Increment(ctx, domain.ClassKey(classID), domain.ProjectKey(projectID), "count", delta)
	return err
}
