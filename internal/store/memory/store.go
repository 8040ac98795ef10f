// Package memory implementa core.Repository sobre mapas en memoria.
// Pensado para tests y para correr el stack completo sin Postgres;
// el changelog y los cursores viven en el mismo proceso.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/easelhq/easel/internal/store/core"
)

type Store struct {
	mu      sync.RWMutex
	items   map[string]map[string]map[string]any // pk -> sk -> attrs
	log     []core.ChangeRecord
	cursors map[string]int64
	nextSeq int64
}

func New() *Store {
	return &Store{
		items:   make(map[string]map[string]map[string]any),
		cursors: make(map[string]int64),
		nextSeq: 1,
	}
}

func (s *Store) Close() {}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Get(_ context.Context, pk, sk string) (*core.Item, error) {
	if pk == "" || sk == "" {
		return nil, core.ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.items[pk][sk]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &core.Item{PK: pk, SK: sk, Attrs: clone(attrs)}, nil
}

func (s *Store) Find(_ context.Context, pk string) (*core.Item, error) {
	if pk == "" {
		return nil, core.ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	part := s.items[pk]
	if len(part) == 0 {
		return nil, core.ErrNotFound
	}
	sks := make([]string, 0, len(part))
	for sk := range part {
		sks = append(sks, sk)
	}
	sort.Strings(sks)
	sk := sks[0]
	return &core.Item{PK: pk, SK: sk, Attrs: clone(part[sk])}, nil
}

func (s *Store) Put(_ context.Context, it *core.Item) error {
	if it == nil || it.PK == "" || it.SK == "" {
		return core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.items[it.PK]
	if part == nil {
		part = make(map[string]map[string]any)
		s.items[it.PK] = part
	}
	before := part[it.SK]
	after := clone(it.Attrs)
	part[it.SK] = after

	op := core.OpInsert
	if before != nil {
		op = core.OpModify
	}
	s.append(op, it.PK, it.SK, before, after)
	return nil
}

func (s *Store) Update(_ context.Context, pk, sk string, patch map[string]any) (*core.Item, error) {
	if pk == "" || sk == "" {
		return nil, core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.items[pk][sk]
	if !ok {
		return nil, core.ErrNotFound
	}
	after := clone(before)
	for k, v := range patch {
		after[k] = v
	}
	s.items[pk][sk] = after
	s.append(core.OpModify, pk, sk, before, after)
	return &core.Item{PK: pk, SK: sk, Attrs: clone(after)}, nil
}

func (s *Store) Increment(_ context.Context, pk, sk, attr string, delta int) (int, error) {
	if pk == "" || sk == "" || attr == "" {
		return 0, core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.items[pk][sk]
	if !ok {
		return 0, core.ErrNotFound
	}
	cur := 0
	switch v := before[attr].(type) {
	case int:
		cur = v
	case float64:
		cur = int(v)
	}
	next := cur + delta

	after := clone(before)
	after[attr] = next
	s.items[pk][sk] = after
	s.append(core.OpModify, pk, sk, before, after)
	return next, nil
}

func (s *Store) Delete(_ context.Context, pk, sk string) error {
	if pk == "" || sk == "" {
		return core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.items[pk][sk]
	if !ok {
		return nil
	}
	delete(s.items[pk], sk)
	if len(s.items[pk]) == 0 {
		delete(s.items, pk)
	}
	s.append(core.OpRemove, pk, sk, before, nil)
	return nil
}

func (s *Store) Query(_ context.Context, pk, skPrefix string) ([]core.Item, error) {
	if pk == "" {
		return nil, core.ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Item
	for sk, attrs := range s.items[pk] {
		if strings.HasPrefix(sk, skPrefix) {
			out = append(out, core.Item{PK: pk, SK: sk, Attrs: clone(attrs)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SK < out[j].SK })
	return out, nil
}

func (s *Store) ReverseQuery(_ context.Context, sk, pkPrefix string) ([]core.Item, error) {
	if sk == "" {
		return nil, core.ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Item
	for pk, part := range s.items {
		if !strings.HasPrefix(pk, pkPrefix) {
			continue
		}
		if attrs, ok := part[sk]; ok {
			out = append(out, core.Item{PK: pk, SK: sk, Attrs: clone(attrs)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PK < out[j].PK })
	return out, nil
}

func (s *Store) Scan(_ context.Context, pkPrefix string) ([]core.Item, error) {
	if pkPrefix == "" {
		return nil, core.ErrInvalid
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Item
	for pk, part := range s.items {
		if !strings.HasPrefix(pk, pkPrefix) {
			continue
		}
		for sk, attrs := range part {
			out = append(out, core.Item{PK: pk, SK: sk, Attrs: clone(attrs)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PK != out[j].PK {
			return out[i].PK < out[j].PK
		}
		return out[i].SK < out[j].SK
	})
	return out, nil
}

func (s *Store) Changes(_ context.Context, after int64, limit int) ([]core.ChangeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ChangeRecord
	for _, r := range s.log {
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

func (s *Store) LoadCursor(_ context.Context, consumer string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[consumer], nil
}

func (s *Store) SaveCursor(_ context.Context, consumer string, position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[consumer] = position
	return nil
}

// append asume s.mu tomado en modo write.
func (s *Store) append(op core.Operation, pk, sk string, before, after map[string]any) {
	s.log = append(s.log, core.ChangeRecord{
		Seq:       s.nextSeq,
		Op:        op,
		PK:        pk,
		SK:        sk,
		Before:    clone(before),
		After:     clone(after),
		CreatedAt: time.Now().UTC(),
	})
	s.nextSeq++
}

func clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
