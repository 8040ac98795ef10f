package ws

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/entities"
	"github.com/easelhq/easel/internal/store/memory"
)

func newTestDispatcher() (*Dispatcher, *entities.Services) {
	svc := entities.NewServices(entities.Deps{KV: memory.New()})
	return NewDispatcher(svc, "anonymous"), svc
}

func TestDispatch_MalformedMessages(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx := context.Background()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"json roto", `{"action":`, "Invalid message format"},
		{"sin action", `{"name":"x"}`, "Missing action"},
		{"acción inventada", `{"action":"explode"}`, "Unknown action"},
	}
	for _, c := range cases {
		_, err := d.Dispatch(ctx, "u1", []byte(c.raw))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: want %q, got %v", c.name, c.want, err)
		}
	}
}

func TestDispatch_RequiredFields(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx := context.Background()

	// Cada acción sin su id de ruteo responde "Missing <campo>".
	cases := []struct {
		action string
		body   string
		want   string
	}{
		{ActionUpdateProject, `{}`, "Missing project_id"},
		{ActionDeleteProject, `{}`, "Missing project_id"},
		{ActionCreateBlock, `{"name":"x"}`, "Missing project_id"},
		{ActionUpdateBlock, `{}`, "Missing block_id"},
		{ActionDeleteBlock, `{}`, "Missing block_id"},
		{ActionCreateImage, `{"url":"x"}`, "Missing block_id"},
		{ActionUpdateImage, `{}`, "Missing image_id"},
		{ActionDeleteImage, `{}`, "Missing image_id"},
		{ActionCreateClass, `{"name":"x"}`, "Missing project_id"},
		{ActionUpdateClass, `{"project_id":"p1"}`, "Missing class_id"},
		{ActionDeleteClass, `{"class_id":"c1"}`, "Missing project_id"},
		{ActionCreateAnnotation, `{"project_id":"p1"}`, "Missing image_id"},
		{ActionCreateAnnotation, `{"image_id":"i1"}`, "Missing project_id"},
		{ActionUpdateAnnotation, `{"image_id":"i1","project_id":"p1"}`, "Missing annotation_id"},
		{ActionDeleteAnnotation, `{"annotation_id":"a1","project_id":"p1"}`, "Missing image_id"},
		{ActionBatchCreateAnnotations, `{"image_id":"i1"}`, "Missing project_id"},
	}
	for _, c := range cases {
		raw := fmt.Sprintf(`{"action":%q}`, c.action)
		if c.body != `{}` {
			// Embebe el cuerpo en el mismo objeto del sobre.
			raw = fmt.Sprintf(`{"action":%q,%s`, c.action, c.body[1:])
		}
		_, err := d.Dispatch(ctx, "u1", []byte(raw))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s %s: want %q, got %v", c.action, c.body, c.want, err)
		}
	}
}

func TestDispatch_CreateProject(t *testing.T) {
	d, svc := newTestDispatcher()
	ctx := context.Background()

	raw := []byte(`{"action":"create_project","name":"Flota","type":"detection","labels":["auto"]}`)
	result, err := d.Dispatch(ctx, "u1", raw)
	if err != nil {
		t.Fatalf("Dispatch err: %v", err)
	}
	p, ok := result.(*domain.Project)
	if !ok {
		t.Fatalf("resultado inesperado: %T", result)
	}
	if p.Name != "Flota" {
		t.Fatalf("name %q want Flota", p.Name)
	}

	// La membresía quedó a nombre del emisor.
	mine, err := svc.Projects.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ProjectID != p.ProjectID {
		t.Fatalf("el proyecto no quedó asociado al emisor: %+v", mine)
	}
}

func TestDispatch_AnonymousTakesBodyIdentity(t *testing.T) {
	d, svc := newTestDispatcher()
	ctx := context.Background()

	raw := []byte(`{"action":"create_project","user_id":"u9","name":"P","type":"detection","labels":["a"]}`)
	for _, sessionUser := range []string{"anonymous", ""} {
		if _, err := d.Dispatch(ctx, sessionUser, raw); err != nil {
			t.Fatalf("sesión %q: %v", sessionUser, err)
		}
	}
	mine, err := svc.Projects.List(ctx, "u9")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d proyectos de u9 want 2", len(mine))
	}

	// Una sesión autenticada ignora el user_id del cuerpo.
	if _, err := d.Dispatch(ctx, "u1", raw); err != nil {
		t.Fatal(err)
	}
	mine, err = svc.Projects.List(ctx, "u9")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Fatalf("el user_id del cuerpo pisó a la sesión autenticada")
	}
}

func TestDispatch_DeleteHasNoResponseDoc(t *testing.T) {
	d, svc := newTestDispatcher()
	ctx := context.Background()

	p, err := svc.Projects.Create(ctx, "u1", entities.CreateProjectInput{Name: "P", Type: "detection", Labels: []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}
	raw := []byte(fmt.Sprintf(`{"action":"delete_project","project_id":%q}`, p.ProjectID))
	result, err := d.Dispatch(ctx, "u1", raw)
	if err != nil {
		t.Fatalf("Dispatch err: %v", err)
	}
	if result != nil {
		t.Fatalf("un delete no lleva documento de respuesta: %+v", result)
	}
}

func TestDispatch_ServiceValidationComesBack(t *testing.T) {
	d, _ := newTestDispatcher()

	// El servicio rechaza y el error vuelve como respuesta, no como pánico.
	raw := []byte(`{"action":"create_project","name":"P"}`)
	if _, err := d.Dispatch(context.Background(), "u1", raw); err == nil {
		t.Fatalf("proyecto sin type/labels debió rechazarse")
	}
}
