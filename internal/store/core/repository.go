package core

import "context"

// KV es la frontera con la tabla única. Cada mutación (Put/Update/Delete)
// agrega su ChangeRecord en la misma transacción que el write, así el
// changelog nunca diverge de la tabla.
type KV interface {
	Ping(ctx context.Context) error

	// Get retorna el item con clave exacta (pk, sk). ErrNotFound si no existe.
	Get(ctx context.Context, pk, sk string) (*Item, error)

	// Find retorna el único item cuya partition key es pk (entidades cuyo
	// sort key apunta al padre y no se conoce de antemano).
	Find(ctx context.Context, pk string) (*Item, error)

	// Put upsertea el item completo. Fila nueva => OpInsert; fila
	// reemplazada => OpModify con before.
	Put(ctx context.Context, it *Item) error

	// Update mergea patch sobre los atributos existentes y retorna el item
	// resultante. ErrNotFound si la fila no existe.
	Update(ctx context.Context, pk, sk string, patch map[string]any) (*Item, error)

	// Increment suma delta a un atributo numérico de forma atómica (ausente
	// cuenta como 0) y retorna el valor resultante. ErrNotFound si la fila
	// no existe.
	Increment(ctx context.Context, pk, sk, attr string, delta int) (int, error)

	// Delete borra la fila si existe (OpRemove con before). Borrar una fila
	// inexistente no es error y no genera registro.
	Delete(ctx context.Context, pk, sk string) error

	// Query lista los items de una partición cuyo sort key empieza con
	// skPrefix (prefijo vacío = toda la partición), ordenados por sk.
	Query(ctx context.Context, pk, skPrefix string) ([]Item, error)

	// ReverseQuery lista los items cuyo sort key es sk y cuya partition key
	// empieza con pkPrefix (índice invertido), ordenados por pk.
	ReverseQuery(ctx context.Context, sk, pkPrefix string) ([]Item, error)

	// Scan enumera todos los items cuya partition key empieza con pkPrefix.
	// Es un snapshot sin garantía de consistencia frente a writes
	// concurrentes.
	Scan(ctx context.Context, pkPrefix string) ([]Item, error)
}

// ChangeLog expone el feed ordenado de mutaciones y el cursor durable del
// consumidor.
type ChangeLog interface {
	// Changes retorna hasta limit registros con seq > after, en orden.
	Changes(ctx context.Context, after int64, limit int) ([]ChangeRecord, error)

	LoadCursor(ctx context.Context, consumer string) (int64, error)
	SaveCursor(ctx context.Context, consumer string, position int64) error
}

// Repository combina la tabla y su changelog sobre el mismo backend.
type Repository interface {
	KV
	ChangeLog
	Close()
}
