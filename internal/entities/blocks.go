package entities

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
)

// Estados válidos de un block.
var blockStates = map[string]bool{
	"draft":    true,
	"current":  true,
	"review":   true,
	"complete": true,
	"paid":     true,
}

// BlockService maneja los blocks de un proyecto. La fila vive como
// (BLOCK#id / PROJECT#pid); los listados por proyecto usan el índice
// invertido.
type BlockService struct {
	kv     core.KV
	images *ImageService
}

func NewBlockService(kv core.KV, images *ImageService) *BlockService {
	return &BlockService{kv: kv, images: images}
}

type CreateBlockInput struct {
	Name string `json:"name"`
}

type UpdateBlockInput struct {
	Name       *string `json:"name,omitempty"`
	State      *string `json:"state,omitempty"`
	Locked     *bool   `json:"locked,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

func (s *BlockService) Create(ctx context.Context, projectID string, in CreateBlockInput) (*domain.Block, error) {
	if projectID == "" {
		return nil, invalidf("project_id is required")
	}
	if in.Name == "" {
		return nil, invalidf("name is required")
	}

	b := domain.Block{
		BlockID:   uuid.New().String(),
		ProjectID: projectID,
		Name:      in.Name,
		State:     "draft",
		Locked:    false,
		CreatedAt: nowRFC3339(),
	}

	pk := domain.BlockKey(b.BlockID)
	sk := domain.ProjectKey(projectID)
	a, err := attrs(&b, pk, sk)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: sk, Attrs: a}); err != nil {
		return nil, fmt.Errorf("put block: %w", err)
	}
	return &b, nil
}

// Get resuelve el block por id; el proyecto padre sale de la propia fila.
func (s *BlockService) Get(ctx context.Context, id string) (*domain.Block, error) {
	if id == "" {
		return nil, invalidf("block_id is required")
	}
	it, err := s.kv.Find(ctx, domain.BlockKey(id))
	if err != nil {
		return nil, err
	}
	var b domain.Block
	if err := decode(it.Attrs, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BlockService) List(ctx context.Context, projectID string) ([]domain.Block, error) {
	if projectID == "" {
		return nil, invalidf("project_id is required")
	}
	items, err := s.kv.ReverseQuery(ctx, domain.ProjectKey(projectID), domain.PrefixBlock)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Block, 0, len(items))
	for _, it := range items {
		var b domain.Block
		if err := decode(it.Attrs, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *BlockService) Update(ctx context.Context, id string, in UpdateBlockInput) (*domain.Block, error) {
	if id == "" {
		return nil, invalidf("block_id is required")
	}
	patch := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, invalidf("name cannot be empty")
		}
		patch["name"] = *in.Name
	}
	if in.State != nil {
		if !blockStates[*in.State] {
			return nil, invalidf("invalid state %q", *in.State)
		}
		patch["state"] = *in.State
	}
	if in.Locked != nil {
		patch["locked"] = *in.Locked
	}
	if in.AssignedTo != nil {
		patch["assigned_to"] = *in.AssignedTo
	}
	if len(patch) == 0 {
		return s.Get(ctx, id)
	}

	cur, err := s.kv.Find(ctx, domain.BlockKey(id))
	if err != nil {
		return nil, err
	}
	it, err := s.kv.Update(ctx, cur.PK, cur.SK, patch)
	if err != nil {
		return nil, err
	}
	var b domain.Block
	if err := decode(it.Attrs, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete borra el block con sus imágenes y las anotaciones de cada imagen.
func (s *BlockService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalidf("block_id is required")
	}
	it, err := s.kv.Find(ctx, domain.BlockKey(id))
	if err != nil {
		return err
	}
	return s.remove(ctx, it.PK, it.SK)
}

// remove cascada desde una fila ya resuelta; lo usa también el borrado de
// proyectos.
func (s *BlockService) remove(ctx context.Context, pk, sk string) error {
	images, err := s.kv.ReverseQuery(ctx, pk, domain.PrefixImage)
	if err != nil {
		return err
	}
	for _, img := range images {
		if err := s.images.remove(ctx, img.PK, img.SK); err != nil {
			return fmt.Errorf("delete image %s: %w", img.PK, err)
		}
	}
	return s.kv.Delete(ctx, pk, sk)
}
