package core

import "time"

// Operation clasifica una mutación del changelog.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpModify Operation = "MODIFY"
	OpRemove Operation = "REMOVE"
)

// Item es una fila de la tabla única: clave compuesta (PK, SK) y un documento
// de atributos. Attrs duplica PK y SK adentro para que las imágenes del
// changelog sean autocontenidas.
type Item struct {
	PK    string
	SK    string
	Attrs map[string]any
}

// ChangeRecord es una entrada del changelog: imágenes before/after de una
// mutación sobre items, en el mismo orden en que se confirmó.
type ChangeRecord struct {
	Seq       int64
	Op        Operation
	PK        string
	SK        string
	Before    map[string]any
	After     map[string]any
	CreatedAt time.Time
}
