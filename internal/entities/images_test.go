package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/easelhq/easel/internal/store/core"
)

func TestImageCreate(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	img, err := svc.Images.Create(ctx, "b1", CreateImageInput{URL: "https://img/1.jpg", Order: intptr(3)})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if img.Locked {
		t.Fatalf("una imagen nueva no arranca locked")
	}
	if img.Order == nil || *img.Order != 3 {
		t.Fatalf("order perdido: %+v", img)
	}

	if _, err := svc.Images.Create(ctx, "b1", CreateImageInput{}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("sin url: want ErrInvalid, got %v", err)
	}
	if _, err := svc.Images.Create(ctx, "", CreateImageInput{URL: "x"}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("sin block: want ErrInvalid, got %v", err)
	}
}

func TestImageUpdate_LockAndOrder(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	img, err := svc.Images.Create(ctx, "b1", CreateImageInput{URL: "https://img/1.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Images.Update(ctx, img.ImageID, UpdateImageInput{Locked: boolptr(true), Order: intptr(9)})
	if err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if !got.Locked || got.Order == nil || *got.Order != 9 {
		t.Fatalf("patch perdido: %+v", got)
	}

	// Patch vacío devuelve la fila tal cual.
	same, err := svc.Images.Update(ctx, img.ImageID, UpdateImageInput{})
	if err != nil {
		t.Fatal(err)
	}
	if !same.Locked {
		t.Fatalf("patch vacío pisó la fila: %+v", same)
	}
}

func TestImageList_PerBlock(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	for _, bid := range []string{"b1", "b1", "b2"} {
		if _, err := svc.Images.Create(ctx, bid, CreateImageInput{URL: "https://img/x.jpg"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := svc.Images.List(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d imágenes want 2", len(got))
	}
}

func TestImageDelete_DropsAnnotations(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	img, err := svc.Images.Create(ctx, "b1", CreateImageInput{URL: "https://img/1.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Annotations.Create(ctx, "u1", img.ImageID, "", CreateAnnotationInput{ClassID: "c1", Geometry: []byte(bboxGeom)}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Images.Delete(ctx, img.ImageID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if _, err := svc.Images.Get(ctx, img.ImageID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("imagen sigue viva: %v", err)
	}
	anns, err := svc.Annotations.List(ctx, img.ImageID)
	if err != nil {
		t.Fatal(err)
	}
	if len(anns) != 0 {
		t.Fatalf("anotaciones huérfanas: %+v", anns)
	}
}
