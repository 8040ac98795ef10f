package entities

import (
	"github.com/easelhq/easel/internal/store/memory"
)

// newTestServices arma el grafo completo sobre el store en memoria, sin
// cache ni mailer. Retorna también el store para inspeccionar filas crudas.
func newTestServices() (*Services, *memory.Store) {
	kv := memory.New()
	return NewServices(Deps{KV: kv}), kv
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }
func intptr(i int) *int       { return &i }
