package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
)

func TestBlockCreate_Defaults(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	b, err := svc.Blocks.Create(ctx, "p1", CreateBlockInput{Name: "lote 1"})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if b.State != "draft" {
		t.Fatalf("state %q want draft", b.State)
	}
	if b.Locked {
		t.Fatalf("un block nuevo no arranca locked")
	}

	if _, err := svc.Blocks.Create(ctx, "p1", CreateBlockInput{}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("sin name: want ErrInvalid, got %v", err)
	}
	if _, err := svc.Blocks.Create(ctx, "", CreateBlockInput{Name: "x"}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("sin project: want ErrInvalid, got %v", err)
	}
}

func TestBlockUpdate_States(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	b, err := svc.Blocks.Create(ctx, "p1", CreateBlockInput{Name: "lote"})
	if err != nil {
		t.Fatal(err)
	}

	for _, state := range []string{"current", "review", "complete", "paid"} {
		got, err := svc.Blocks.Update(ctx, b.BlockID, UpdateBlockInput{State: strptr(state)})
		if err != nil {
			t.Fatalf("state %q rechazado: %v", state, err)
		}
		if got.State != state {
			t.Fatalf("state %q want %q", got.State, state)
		}
	}
	if _, err := svc.Blocks.Update(ctx, b.BlockID, UpdateBlockInput{State: strptr("archivado")}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("estado inventado: want ErrInvalid, got %v", err)
	}

	got, err := svc.Blocks.Update(ctx, b.BlockID, UpdateBlockInput{
		Locked:     boolptr(true),
		AssignedTo: strptr("u2"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Locked || got.AssignedTo == nil || *got.AssignedTo != "u2" {
		t.Fatalf("patch parcial perdido: %+v", got)
	}
}

func TestBlockGet_ResolvesParent(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	b, err := svc.Blocks.Create(ctx, "p1", CreateBlockInput{Name: "lote"})
	if err != nil {
		t.Fatal(err)
	}
	// Get va sólo con el id; el project sale de la fila.
	got, err := svc.Blocks.Get(ctx, b.BlockID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.ProjectID != "p1" {
		t.Fatalf("project_id %q want p1", got.ProjectID)
	}
	if _, err := svc.Blocks.Get(ctx, "no-existe"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBlockList_PerProject(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	for _, pid := range []string{"p1", "p1", "p2"} {
		if _, err := svc.Blocks.Create(ctx, pid, CreateBlockInput{Name: "lote"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := svc.Blocks.List(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d blocks want 2", len(got))
	}
}

func TestBlockDelete_CascadesImagesAndAnnotations(t *testing.T) {
	svc, kv := newTestServices()
	ctx := context.Background()

	cl, err := svc.Classes.Create(ctx, "p1", CreateClassInput{Name: "auto"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Blocks.Create(ctx, "p1", CreateBlockInput{Name: "lote"})
	if err != nil {
		t.Fatal(err)
	}
	img, err := svc.Images.Create(ctx, b.BlockID, CreateImageInput{URL: "https://img/1.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Annotations.Create(ctx, "u1", img.ImageID, "p1", CreateAnnotationInput{ClassID: cl.ClassID, Geometry: []byte(bboxGeom)}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Blocks.Delete(ctx, b.BlockID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}

	for _, prefix := range []string{domain.PrefixBlock, domain.PrefixImage, domain.PrefixAnnotation} {
		items, err := kv.Scan(ctx, prefix)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Fatalf("quedaron filas %s tras la cascada: %+v", prefix, items)
		}
	}
	// La clase sobrevive al borrado del block.
	if _, err := svc.Classes.Get(ctx, "p1", cl.ClassID); err != nil {
		t.Fatalf("la clase no debía caer en la cascada: %v", err)
	}
}
