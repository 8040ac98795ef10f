package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easelhq/easel/internal/store/core"
)

// fakeLog implementa core.ChangeLog con registros enlatados.
type fakeLog struct {
	recs       []core.ChangeRecord
	cursor     int64
	changesErr error
	saveErr    error
}

func (f *fakeLog) Changes(_ context.Context, after int64, limit int) ([]core.ChangeRecord, error) {
	if f.changesErr != nil {
		return nil, f.changesErr
	}
	var out []core.ChangeRecord
	for _, r := range f.recs {
		if r.Seq <= after {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLog) LoadCursor(context.Context, string) (int64, error) { return f.cursor, nil }

func (f *fakeLog) SaveCursor(_ context.Context, _ string, pos int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.cursor = pos
	return nil
}

// recBroadcaster acumula los tipos entregados; failOn fuerza una falla.
type recBroadcaster struct {
	types  []string
	failOn string
}

func (b *recBroadcaster) Broadcast(_ context.Context, n *Notification) error {
	if n.Type == b.failOn {
		return errors.New("entrega forzada a fallar")
	}
	b.types = append(b.types, n.Type)
	return nil
}

func insertRec(seq int64, pk string) core.ChangeRecord {
	return core.ChangeRecord{
		Seq:   seq,
		Op:    core.OpInsert,
		PK:    pk,
		SK:    pk,
		After: map[string]any{"PK": pk, "SK": pk},
	}
}

func TestRunOnce_DeliversAndAdvances(t *testing.T) {
	log := &fakeLog{recs: []core.ChangeRecord{
		insertRec(1, "PROJECT#p1"),
		insertRec(2, "CONNECTION#c1"), // bookkeeping: se saltea
		insertRec(3, "IMAGE#i1"),
	}}
	b := &recBroadcaster{}
	c := NewConsumer(log, b, "test", time.Millisecond, 10)

	n, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce err: %v", err)
	}
	if n != 3 {
		t.Fatalf("leídos %d want 3", n)
	}
	if len(b.types) != 2 || b.types[0] != "project_created" || b.types[1] != "image_created" {
		t.Fatalf("entregas inesperadas: %v", b.types)
	}
	if log.cursor != 3 {
		t.Fatalf("cursor en %d want 3", log.cursor)
	}
}

func TestRunOnce_BroadcastFailureDoesNotStall(t *testing.T) {
	log := &fakeLog{recs: []core.ChangeRecord{
		insertRec(1, "PROJECT#p1"),
		insertRec(2, "IMAGE#i1"),
		insertRec(3, "BLOCK#b1"),
	}}
	b := &recBroadcaster{failOn: "image_created"}
	c := NewConsumer(log, b, "test", time.Millisecond, 10)

	if _, err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce err: %v", err)
	}
	// El registro fallido no se reintenta: el cursor avanza igual.
	if log.cursor != 3 {
		t.Fatalf("cursor en %d want 3", log.cursor)
	}
	if len(b.types) != 2 {
		t.Fatalf("entregas inesperadas: %v", b.types)
	}
}

func TestRunOnce_MalformedRecordDiscarded(t *testing.T) {
	bad := core.ChangeRecord{Seq: 1, Op: core.OpInsert, PK: "PROJECT#p1", SK: "PROJECT#p1",
		After: map[string]any{"name": "sin PK duplicada"}}
	log := &fakeLog{recs: []core.ChangeRecord{bad, insertRec(2, "PROJECT#p2")}}
	b := &recBroadcaster{}
	c := NewConsumer(log, b, "test", time.Millisecond, 10)

	if _, err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce err: %v", err)
	}
	if len(b.types) != 1 || b.types[0] != "project_created" {
		t.Fatalf("entregas inesperadas: %v", b.types)
	}
	if log.cursor != 2 {
		t.Fatalf("cursor en %d want 2", log.cursor)
	}
}

func TestRunOnce_EmptyBatch(t *testing.T) {
	log := &fakeLog{cursor: 7}
	c := NewConsumer(log, &recBroadcaster{}, "test", time.Millisecond, 10)

	n, err := c.RunOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("batch vacío: n=%d err=%v", n, err)
	}
	if log.cursor != 7 {
		t.Fatalf("el cursor no debe moverse sin registros: %d", log.cursor)
	}
}

func TestRunOnce_ChangesError(t *testing.T) {
	boom := errors.New("db caída")
	log := &fakeLog{changesErr: boom}
	c := NewConsumer(log, &recBroadcaster{}, "test", time.Millisecond, 10)

	if _, err := c.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want changes error, got %v", err)
	}
}

func TestRunOnce_SaveCursorError(t *testing.T) {
	boom := errors.New("cursor no persiste")
	log := &fakeLog{recs: []core.ChangeRecord{insertRec(1, "PROJECT#p1")}, saveErr: boom}
	b := &recBroadcaster{}
	c := NewConsumer(log, b, "test", time.Millisecond, 10)

	n, err := c.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("want save error, got %v", err)
	}
	// Las entregas ya salieron; sólo falló la persistencia del cursor.
	if n != 1 || len(b.types) != 1 {
		t.Fatalf("n=%d types=%v", n, b.types)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	log := &fakeLog{}
	c := NewConsumer(log, &recBroadcaster{}, "test", 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run no terminó tras cancelar")
	}
}
