package stream

import (
	"encoding/json"
	"testing"

	"github.com/easelhq/easel/internal/store/core"
)

func rec(op core.Operation, pk string, before, after map[string]any) core.ChangeRecord {
	return core.ChangeRecord{Seq: 1, Op: op, PK: pk, SK: pk, Before: before, After: after}
}

func TestClassify_Created(t *testing.T) {
	after := map[string]any{"PK": "PROJECT#p1", "SK": "PROJECT#p1", "name": "demo"}
	n, err := Classify(rec(core.OpInsert, "PROJECT#p1", nil, after))
	if err != nil {
		t.Fatalf("Classify err: %v", err)
	}
	if n == nil || n.Type != "project_created" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Payload["name"] != "demo" {
		t.Fatalf("payload debe ser la imagen after: %+v", n.Payload)
	}
}

func TestClassify_Updated(t *testing.T) {
	before := map[string]any{"PK": "IMAGE#i1", "locked": false}
	after := map[string]any{"PK": "IMAGE#i1", "locked": true}
	n, err := Classify(rec(core.OpModify, "IMAGE#i1", before, after))
	if err != nil {
		t.Fatalf("Classify err: %v", err)
	}
	if n.Type != "image_updated" || n.Payload["locked"] != true {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestClassify_Deleted_OnlyID(t *testing.T) {
	// REMOVE viaja sin after; la pk sale de la imagen previa.
	before := map[string]any{"PK": "ANNOTATION#a9", "geometry": "..."}
	n, err := Classify(rec(core.OpRemove, "ANNOTATION#a9", before, nil))
	if err != nil {
		t.Fatalf("Classify err: %v", err)
	}
	if n.Type != "annotation_deleted" {
		t.Fatalf("got type %q", n.Type)
	}
	if len(n.Payload) != 1 || n.Payload["id"] != "a9" {
		t.Fatalf("el payload de un delete lleva sólo el id: %+v", n.Payload)
	}
}

func TestClassify_SkipsConnections(t *testing.T) {
	for _, op := range []core.Operation{core.OpInsert, core.OpModify, core.OpRemove} {
		img := map[string]any{"PK": "CONNECTION#c1", "user_id": "u1"}
		n, err := Classify(rec(op, "CONNECTION#c1", img, img))
		if err != nil {
			t.Fatalf("op %s err: %v", op, err)
		}
		if n != nil {
			t.Fatalf("op %s: las filas del registry no se notifican: %+v", op, n)
		}
	}
}

func TestClassify_SkipsUnknownPrefixes(t *testing.T) {
	for _, pk := range []string{"USER#u1", "INVITE#xyz", "OTRACOSA#1"} {
		img := map[string]any{"PK": pk}
		n, err := Classify(rec(core.OpInsert, pk, nil, img))
		if err != nil {
			t.Fatalf("pk %s err: %v", pk, err)
		}
		if n != nil {
			t.Fatalf("pk %s no debería notificar: %+v", pk, n)
		}
	}
}

func TestClassify_SkipsUnknownOp(t *testing.T) {
	img := map[string]any{"PK": "PROJECT#p1"}
	n, err := Classify(rec(core.Operation("TRUNCATE"), "PROJECT#p1", nil, img))
	if err != nil || n != nil {
		t.Fatalf("op desconocida debe descartarse: n=%+v err=%v", n, err)
	}
}

func TestClassify_MissingPK(t *testing.T) {
	n, err := Classify(rec(core.OpInsert, "PROJECT#p1", nil, map[string]any{"name": "sin pk"}))
	if err == nil {
		t.Fatalf("imagen sin PK debe ser error, got %+v", n)
	}
}

func TestNotification_Wire(t *testing.T) {
	n := &Notification{
		Type: "image_created",
		Payload: map[string]any{
			"image_id": "i1",
			"type":     "esto no debería salir", // colisión: gana el kind
		},
	}
	b, err := n.Wire()
	if err != nil {
		t.Fatalf("Wire err: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("output no es JSON: %v", err)
	}
	if doc["type"] != "image_created" {
		t.Fatalf("type debe ganar la colisión: %+v", doc)
	}
	if doc["image_id"] != "i1" {
		t.Fatalf("payload debe ir al tope del documento: %+v", doc)
	}
}
