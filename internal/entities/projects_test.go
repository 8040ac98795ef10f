package entities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easelhq/easel/internal/cache"
	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
	"github.com/easelhq/easel/internal/store/memory"
)

func TestProjectCreate_Validation(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	cases := []CreateProjectInput{
		{Type: "detection", Labels: []string{"a"}},          // sin name
		{Name: "p", Labels: []string{"a"}},                  // sin type
		{Name: "p", Type: "detection"},                      // sin labels
		{Name: "p", Type: "detection", Labels: []string{}},  // labels vacíos
	}
	for i, in := range cases {
		if _, err := svc.Projects.Create(ctx, "u1", in); !errors.Is(err, core.ErrInvalid) {
			t.Fatalf("case %d: want ErrInvalid, got %v", i, err)
		}
	}
}

func TestProjectCreate_WritesMembership(t *testing.T) {
	svc, kv := newTestServices()
	ctx := context.Background()

	p, err := svc.Projects.Create(ctx, "u1", CreateProjectInput{
		Name: "Demo", Type: "detection", Labels: []string{"bbox"},
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if p.ProjectID == "" || p.Locked {
		t.Fatalf("unexpected project: %+v", p)
	}

	// La membresía queda como fila (USER#u1 / PROJECT#id).
	links, err := kv.Query(ctx, domain.UserKey("u1"), domain.PrefixProject)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].SK != domain.ProjectKey(p.ProjectID) {
		t.Fatalf("membresía inesperada: %+v", links)
	}
}

func TestProjectList_ByMembership(t *testing.T) {
	svc, kv := newTestServices()
	ctx := context.Background()

	p1, _ := svc.Projects.Create(ctx, "u1", CreateProjectInput{Name: "A", Type: "detection", Labels: []string{"x"}})
	if _, err := svc.Projects.Create(ctx, "u2", CreateProjectInput{Name: "B", Type: "detection", Labels: []string{"x"}}); err != nil {
		t.Fatal(err)
	}

	out, err := svc.Projects.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(out) != 1 || out[0].ProjectID != p1.ProjectID {
		t.Fatalf("u1 sólo ve su proyecto: %+v", out)
	}

	// Una membresía colgada (proyecto borrado por fuera) se saltea.
	pk := domain.ProjectKey(p1.ProjectID)
	if err := kv.Delete(ctx, pk, pk); err != nil {
		t.Fatal(err)
	}
	out, err = svc.Projects.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("membresía colgada no debe listar: %+v", out)
	}
}

func TestProjectUpdate_Partial(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	p, _ := svc.Projects.Create(ctx, "u1", CreateProjectInput{Name: "A", Type: "detection", Labels: []string{"x"}})

	got, err := svc.Projects.Update(ctx, p.ProjectID, UpdateProjectInput{Locked: boolptr(true)})
	if err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if !got.Locked || got.Name != "A" {
		t.Fatalf("update parcial pisó otros campos: %+v", got)
	}

	// Sin campos: no escribe y retorna el estado actual.
	same, err := svc.Projects.Update(ctx, p.ProjectID, UpdateProjectInput{})
	if err != nil {
		t.Fatalf("Update vacío err: %v", err)
	}
	if !same.Locked {
		t.Fatalf("estado perdido: %+v", same)
	}

	if _, err := svc.Projects.Update(ctx, p.ProjectID, UpdateProjectInput{Name: strptr("")}); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("name vacío debe rechazarse, got %v", err)
	}
}

func TestProjectDelete_Cascade(t *testing.T) {
	svc, kv := newTestServices()
	ctx := context.Background()

	p, _ := svc.Projects.Create(ctx, "u1", CreateProjectInput{Name: "A", Type: "detection", Labels: []string{"x"}})
	cl, _ := svc.Classes.Create(ctx, p.ProjectID, CreateClassInput{Name: "auto"})
	b, _ := svc.Blocks.Create(ctx, p.ProjectID, CreateBlockInput{Name: "lote 1"})
	img, _ := svc.Images.Create(ctx, b.BlockID, CreateImageInput{URL: "https://img/1.jpg"})
	if _, err := svc.Annotations.Create(ctx, "u1", img.ImageID, p.ProjectID, CreateAnnotationInput{
		ClassID:  cl.ClassID,
		Geometry: []byte(`{"type":"bbox","start":{"x":0,"y":0},"end":{"x":5,"y":5}}`),
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Projects.Delete(ctx, p.ProjectID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}

	// Cae el árbol entero: blocks, imágenes, anotaciones, clases y membresías.
	for _, prefix := range []string{
		domain.PrefixProject, domain.PrefixBlock, domain.PrefixImage,
		domain.PrefixAnnotation, domain.PrefixClass,
	} {
		rows, err := kv.Scan(ctx, prefix)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 0 {
			t.Fatalf("quedaron filas %s: %+v", prefix, rows)
		}
	}
	links, _ := kv.Query(ctx, domain.UserKey("u1"), domain.PrefixProject)
	if len(links) != 0 {
		t.Fatalf("quedó la membresía: %+v", links)
	}

	// Y cada borrado dejó su REMOVE en el changelog.
	recs, _ := kv.Changes(ctx, 0, 100)
	removes := 0
	for _, r := range recs {
		if r.Op == core.OpRemove {
			removes++
		}
	}
	// annotation + image + block + class + membership + project
	if removes != 6 {
		t.Fatalf("got %d REMOVEs want 6", removes)
	}
}

func TestProjectGet_NotFound(t *testing.T) {
	svc, _ := newTestServices()
	if _, err := svc.Projects.Get(context.Background(), "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestProjectCache_ReadThroughAndInvalidation(t *testing.T) {
	kv := memory.New()
	c := cache.NewMemory("t")
	svc := NewServices(Deps{KV: kv, Cache: c, CacheTTL: time.Minute})
	ctx := context.Background()

	p, err := svc.Projects.Create(ctx, "u1", CreateProjectInput{Name: "A", Type: "detection", Labels: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	key := "project:" + p.ProjectID

	if _, err := svc.Projects.Get(ctx, p.ProjectID); err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if ok, _ := c.Exists(ctx, key); !ok {
		t.Fatal("el Get no dejó la entrada en cache")
	}

	// La escritura invalida; el próximo Get repuebla con lo nuevo.
	if _, err := svc.Projects.Update(ctx, p.ProjectID, UpdateProjectInput{Name: strptr("B")}); err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if ok, _ := c.Exists(ctx, key); ok {
		t.Fatal("el Update no invalidó el cache")
	}
	got, err := svc.Projects.Get(ctx, p.ProjectID)
	if err != nil || got.Name != "B" {
		t.Fatalf("lectura post-update: got (%+v, %v)", got, err)
	}

	if err := svc.Projects.Delete(ctx, p.ProjectID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if ok, _ := c.Exists(ctx, key); ok {
		t.Fatal("el Delete no invalidó el cache")
	}
	if _, err := svc.Projects.Get(ctx, p.ProjectID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
