package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/cache"
	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store/core"
)

// ProjectService maneja proyectos y su membresía. El borrado es en cascada:
// se lleva blocks (con imágenes y anotaciones), clases y membresías.
type ProjectService struct {
	kv     core.KV
	blocks *BlockService
	c      cache.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewProjectService(kv core.KV, blocks *BlockService, c cache.Client, ttl time.Duration) *ProjectService {
	return &ProjectService{
		kv:     kv,
		blocks: blocks,
		c:      c,
		ttl:    ttl,
		log:    logger.Named("entities.projects"),
	}
}

type CreateProjectInput struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Labels []string `json:"labels"`
}

type UpdateProjectInput struct {
	Name   *string `json:"name,omitempty"`
	Locked *bool   `json:"locked,omitempty"`
}

// Create da de alta el proyecto y la membresía del creador. Son dos filas:
// la canónica (PROJECT#id / PROJECT#id) y la de membresía
// (USER#uid / PROJECT#id), que el clasificador del stream descarta.
func (s *ProjectService) Create(ctx context.Context, userID string, in CreateProjectInput) (*domain.Project, error) {
	if in.Name == "" {
		return nil, invalidf("name is required")
	}
	if in.Type == "" {
		return nil, invalidf("type is required")
	}
	if len(in.Labels) == 0 {
		return nil, invalidf("project must have at least one label")
	}

	p := domain.Project{
		ProjectID: uuid.New().String(),
		Name:      in.Name,
		Type:      in.Type,
		Locked:    false,
		Labels:    in.Labels,
		CreatedAt: nowRFC3339(),
	}

	pk := domain.ProjectKey(p.ProjectID)
	a, err := attrs(&p, pk, pk)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: pk, Attrs: a}); err != nil {
		return nil, fmt.Errorf("put project: %w", err)
	}

	member := core.Item{
		PK: domain.UserKey(userID),
		SK: pk,
		Attrs: map[string]any{
			"PK":        domain.UserKey(userID),
			"SK":        pk,
			"joined_at": p.CreatedAt,
		},
	}
	if err := s.kv.Put(ctx, &member); err != nil {
		return nil, fmt.Errorf("put membership: %w", err)
	}
	return &p, nil
}

// Get busca primero en cache (si hay) y cae a la tabla.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	if id == "" {
		return nil, invalidf("project_id is required")
	}
	key := "project:" + id
	if s.c != nil {
		if raw, err := s.c.Get(ctx, key); err == nil {
			var p domain.Project
			if json.Unmarshal([]byte(raw), &p) == nil {
				return &p, nil
			}
		}
	}

	pk := domain.ProjectKey(id)
	it, err := s.kv.Get(ctx, pk, pk)
	if err != nil {
		return nil, err
	}
	var p domain.Project
	if err := decode(it.Attrs, &p); err != nil {
		return nil, err
	}

	if s.c != nil {
		if b, err := json.Marshal(&p); err == nil {
			if err := s.c.Set(ctx, key, string(b), s.ttl); err != nil {
				s.log.Debug("cache set falló", logger.Key(key), logger.Err(err))
			}
		}
	}
	return &p, nil
}

// List retorna los proyectos donde el usuario tiene membresía.
func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	if userID == "" {
		return nil, invalidf("user_id is required")
	}
	links, err := s.kv.Query(ctx, domain.UserKey(userID), domain.PrefixProject)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Project, 0, len(links))
	for _, link := range links {
		pk := link.SK
		it, err := s.kv.Get(ctx, pk, pk)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				// Membresía colgada de un proyecto ya borrado.
				continue
			}
			return nil, err
		}
		var p domain.Project
		if err := decode(it.Attrs, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update aplica sólo los campos provistos; sin campos no escribe nada y
// retorna el estado actual.
func (s *ProjectService) Update(ctx context.Context, id string, in UpdateProjectInput) (*domain.Project, error) {
	if id == "" {
		return nil, invalidf("project_id is required")
	}
	patch := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, invalidf("name cannot be empty")
		}
		patch["name"] = *in.Name
	}
	if in.Locked != nil {
		patch["locked"] = *in.Locked
	}
	if len(patch) == 0 {
		return s.Get(ctx, id)
	}

	pk := domain.ProjectKey(id)
	it, err := s.kv.Update(ctx, pk, pk, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	var p domain.Project
	if err := decode(it.Attrs, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete borra el proyecto en cascada: blocks (con imágenes y anotaciones),
// clases, membresías y al final la fila canónica. Cada borrado genera su
// REMOVE en el changelog, así los clientes ven caer el árbol entero.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalidf("project_id is required")
	}
	pk := domain.ProjectKey(id)

	blocks, err := s.kv.ReverseQuery(ctx, pk, domain.PrefixBlock)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := s.blocks.remove(ctx, b.PK, b.SK); err != nil {
			return fmt.Errorf("delete block %s: %w", b.PK, err)
		}
	}

	classes, err := s.kv.ReverseQuery(ctx, pk, domain.PrefixClass)
	if err != nil {
		return err
	}
	for _, c := range classes {
		if err := s.kv.Delete(ctx, c.PK, c.SK); err != nil {
			return fmt.Errorf("delete class %s: %w", c.PK, err)
		}
	}

	members, err := s.kv.ReverseQuery(ctx, pk, domain.PrefixUser)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := s.kv.Delete(ctx, m.PK, m.SK); err != nil {
			return fmt.Errorf("delete membership %s: %w", m.PK, err)
		}
	}

	if err := s.kv.Delete(ctx, pk, pk); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProjectService) invalidate(ctx context.Context, id string) {
	if s.c == nil {
		return
	}
	if err := s.c.Delete(ctx, "project:"+id); err != nil {
		s.log.Debug("cache delete falló", logger.ProjectID(id), logger.Err(err))
	}
}
