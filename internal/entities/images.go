package entities

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
)

// ImageService maneja las imágenes de un block.
type ImageService struct {
	kv core.KV
}

func NewImageService(kv core.KV) *ImageService {
	return &ImageService{kv: kv}
}

type CreateImageInput struct {
	URL   string `json:"url"`
	Order *int   `json:"order,omitempty"`
}

type UpdateImageInput struct {
	Locked *bool `json:"locked,omitempty"`
	Order  *int  `json:"order,omitempty"`
}

func (s *ImageService) Create(ctx context.Context, blockID string, in CreateImageInput) (*domain.Image, error) {
	if blockID == "" {
		return nil, invalidf("block_id is required")
	}
	if in.URL == "" {
		return nil, invalidf("url is required")
	}

	img := domain.Image{
		ImageID:    uuid.New().String(),
		BlockID:    blockID,
		URL:        in.URL,
		Locked:     false,
		Order:      in.Order,
		UploadedAt: nowRFC3339(),
	}

	pk := domain.ImageKey(img.ImageID)
	sk := domain.BlockKey(blockID)
	a, err := attrs(&img, pk, sk)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, &core.Item{PK: pk, SK: sk, Attrs: a}); err != nil {
		return nil, fmt.Errorf("put image: %w", err)
	}
	return &img, nil
}

func (s *ImageService) Get(ctx context.Context, id string) (*domain.Image, error) {
	if id == "" {
		return nil, invalidf("image_id is required")
	}
	it, err := s.kv.Find(ctx, domain.ImageKey(id))
	if err != nil {
		return nil, err
	}
	var img domain.Image
	if err := decode(it.Attrs, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *ImageService) List(ctx context.Context, blockID string) ([]domain.Image, error) {
	if blockID == "" {
		return nil, invalidf("block_id is required")
	}
	items, err := s.kv.ReverseQuery(ctx, domain.BlockKey(blockID), domain.PrefixImage)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Image, 0, len(items))
	for _, it := range items {
		var img domain.Image
		if err := decode(it.Attrs, &img); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func (s *ImageService) Update(ctx context.Context, id string, in UpdateImageInput) (*domain.Image, error) {
	if id == "" {
		return nil, invalidf("image_id is required")
	}
	patch := map[string]any{}
	if in.Locked != nil {
		patch["locked"] = *in.Locked
	}
	if in.Order != nil {
		patch["order"] = *in.Order
	}
	if len(patch) == 0 {
		return s.Get(ctx, id)
	}

	cur, err := s.kv.Find(ctx, domain.ImageKey(id))
	if err != nil {
		return nil, err
	}
	it, err := s.kv.Update(ctx, cur.PK, cur.SK, patch)
	if err != nil {
		return nil, err
	}
	var img domain.Image
	if err := decode(it.Attrs, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// Delete borra la imagen y sus anotaciones.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalidf("image_id is required")
	}
	it, err := s.kv.Find(ctx, domain.ImageKey(id))
	if err != nil {
		return err
	}
	return s.remove(ctx, it.PK, it.SK)
}

// remove cascada desde una fila ya resuelta; lo usan también las cascadas
// de blocks y proyectos.
func (s *ImageService) remove(ctx context.Context, pk, sk string) error {
	anns, err := s.kv.ReverseQuery(ctx, pk, domain.PrefixAnnotation)
	if err != nil {
		return err
	}
	for _, a := range anns {
		if err := s.kv.Delete(ctx, a.PK, a.SK); err != nil {
			return fmt.Errorf("delete annotation %s: %w", a.PK, err)
		}
	}
	return s.kv.Delete(ctx, pk, sk)
}
