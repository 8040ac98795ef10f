package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/easelhq/easel/internal/store/core"
)

const bboxGeom = `{"type":"bbox","start":{"x":0,"y":0},"end":{"x":10,"y":10}}`

// setupAnnotations deja armado proyecto + clase + block + imagen.
func setupAnnotations(t *testing.T) (*Services, string, string, string) {
	t.Helper()
	svc, _ := newTestServices()
	ctx := context.Background()

	p, err := svc.Projects.Create(ctx, "u1", CreateProjectInput{Name: "P", Type: "detection", Labels: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	cl, err := svc.Classes.Create(ctx, p.ProjectID, CreateClassInput{Name: "auto"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Blocks.Create(ctx, p.ProjectID, CreateBlockInput{Name: "lote"})
	if err != nil {
		t.Fatal(err)
	}
	img, err := svc.Images.Create(ctx, b.BlockID, CreateImageInput{URL: "https://img/1.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	return svc, p.ProjectID, cl.ClassID, img.ImageID
}

func classCount(t *testing.T, svc *Services, projectID, classID string) int {
	t.Helper()
	c, err := svc.Classes.Get(context.Background(), projectID, classID)
	if err != nil {
		t.Fatal(err)
	}
	return c.Count
}

func TestAnnotationCreate_BumpsClassCount(t *testing.T) {
	svc, pid, cid, iid := setupAnnotations(t)
	ctx := context.Background()

	a, err := svc.Annotations.Create(ctx, "u1", iid, pid, CreateAnnotationInput{
		ClassID: cid, Geometry: []byte(bboxGeom),
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if a.CreatedBy != "USER#u1" {
		t.Fatalf("created_by inesperado: %q", a.CreatedBy)
	}
	if got := classCount(t, svc, pid, cid); got != 1 {
		t.Fatalf("count en %d want 1", got)
	}

	if err := svc.Annotations.Delete(ctx, iid, a.AnnotationID, pid); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if got := classCount(t, svc, pid, cid); got != 0 {
		t.Fatalf("count en %d want 0", got)
	}
}

func TestAnnotationCreate_Validation(t *testing.T) {
	svc, pid, cid, iid := setupAnnotations(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateAnnotationInput
	}{
		{"sin class", CreateAnnotationInput{Geometry: []byte(bboxGeom)}},
		{"sin geometry", CreateAnnotationInput{ClassID: cid}},
		{"geometry inválida", CreateAnnotationInput{ClassID: cid, Geometry: []byte(`{"type":"circle"}`)}},
	}
	for _, c := range cases {
		if _, err := svc.Annotations.Create(ctx, "u1", iid, pid, c.in); !errors.Is(err, core.ErrInvalid) {
			t.Fatalf("%s: want ErrInvalid, got %v", c.name, err)
		}
	}

	// Nada escrito y el contador en cero.
	if got := classCount(t, svc, pid, cid); got != 0 {
		t.Fatalf("count movido en validación: %d", got)
	}
}

func TestAnnotationUpdate_Reclassify(t *testing.T) {
	svc, pid, cid, iid := setupAnnotations(t)
	ctx := context.Background()

	other, err := svc.Classes.Create(ctx, pid, CreateClassInput{Name: "moto"})
	if err != nil {
		t.Fatal(err)
	}
	a, err := svc.Annotations.Create(ctx, "u1", iid, pid, CreateAnnotationInput{ClassID: cid, Geometry: []byte(bboxGeom)})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Annotations.Update(ctx, iid, a.AnnotationID, pid, UpdateAnnotationInput{ClassID: &other.ClassID})
	if err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if got.ClassID != other.ClassID {
		t.Fatalf("class_id sin cambiar: %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Fatalf("updated_at sin marcar")
	}

	// El contador se movió de la clase vieja a la nueva.
	if n := classCount(t, svc, pid, cid); n != 0 {
		t.Fatalf("clase vieja en %d want 0", n)
	}
	if n := classCount(t, svc, pid, other.ClassID); n != 1 {
		t.Fatalf("clase nueva en %d want 1", n)
	}
}

func TestBatchCreate_ValidatesUpfront(t *testing.T) {
	svc, pid, cid, iid := setupAnnotations(t)
	ctx := context.Background()

	// Una inválida en el lote: no se escribe ninguna.
	_, err := svc.Annotations.BatchCreate(ctx, "u1", iid, pid, BatchCreateAnnotationsInput{
		Annotations: []CreateAnnotationInput{
			{ClassID: cid, Geometry: []byte(bboxGeom)},
			{ClassID: cid, Geometry: []byte(`{"type":"polygon","points":[]}`)},
		},
	})
	if !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	anns, _ := svc.Annotations.List(ctx, iid)
	if len(anns) != 0 {
		t.Fatalf("el lote inválido escribió filas: %+v", anns)
	}

	out, err := svc.Annotations.BatchCreate(ctx, "u1", iid, pid, BatchCreateAnnotationsInput{
		Annotations: []CreateAnnotationInput{
			{ClassID: cid, Geometry: []byte(bboxGeom)},
			{ClassID: cid, Geometry: []byte(bboxGeom)},
			{ClassID: cid, Geometry: []byte(bboxGeom)},
		},
	})
	if err != nil {
		t.Fatalf("BatchCreate err: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d creadas want 3", len(out))
	}
	if got := classCount(t, svc, pid, cid); got != 3 {
		t.Fatalf("count en %d want 3", got)
	}

	if _, err := svc.Annotations.BatchCreate(ctx, "u1", iid, pid, BatchCreateAnnotationsInput{}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("lote vacío debe rechazarse, got %v", err)
	}
}

func TestAnnotationList(t *testing.T) {
	svc, pid, cid, iid := setupAnnotations(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Annotations.Create(ctx, "u1", iid, pid, CreateAnnotationInput{ClassID: cid, Geometry: []byte(bboxGeom)}); err != nil {
			t.Fatal(err)
		}
	}
	anns, err := svc.Annotations.List(ctx, iid)
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(anns) != 2 {
		t.Fatalf("got %d want 2", len(anns))
	}
}
