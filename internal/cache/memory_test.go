package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("test")

	if _, err := c.Get(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("Get de key inexistente: got %v want ErrNotFound", err)
	}

	if err := c.Set(ctx, "greeting", "hola", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := c.Get(ctx, "greeting")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "hola" {
		t.Fatalf("Get: got %q want %q", v, "hola")
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	if err := c.Set(ctx, "ephemeral", "x", 15*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "pinned", "y", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("Get antes de expirar: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	// go-cache valida expiración en el Get, sin esperar al janitor.
	if _, err := c.Get(ctx, "ephemeral"); !IsNotFound(err) {
		t.Fatalf("Get expirado: got %v want ErrNotFound", err)
	}
	if v, err := c.Get(ctx, "pinned"); err != nil || v != "y" {
		t.Fatalf("Get sin TTL: got (%q, %v)", v, err)
	}
}

func TestMemoryExistsDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("p")

	ok, err := c.Exists(ctx, "k")
	if err != nil || ok {
		t.Fatalf("Exists antes de Set: got (%v, %v)", ok, err)
	}
	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = c.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exists después de Set: got (%v, %v)", ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ = c.Exists(ctx, "k"); ok {
		t.Fatal("Exists después de Delete: la key sigue viva")
	}
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	_ = c.Set(ctx, "a", "1", 0)
	_ = c.Set(ctx, "b", "2", 0)
	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "nope")

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Driver != "memory" {
		t.Fatalf("Driver: got %q want %q", st.Driver, "memory")
	}
	if st.Keys != 2 {
		t.Fatalf("Keys: got %d want 2", st.Keys)
	}
	if st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("Hits/Misses: got %d/%d want 2/1", st.Hits, st.Misses)
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	ctx := context.Background()

	c, err := New(Config{Prefix: "easel"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Driver != "memory" {
		t.Fatalf("driver por defecto: got %q want %q", st.Driver, "memory")
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMemoryCloseFlushes(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	_ = c.Set(ctx, "k", "v", 0)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("Get después de Close: got %v want ErrNotFound", err)
	}
}
