package stream

import "encoding/json"

// Notification es el cambio de dominio ya clasificado: un tag tipo
// "<entidad>_<operación>" y un payload tomado de la imagen del registro.
// Se construye en el clasificador, se serializa una sola vez en el
// dispatcher y se descarta.
type Notification struct {
	Type    string
	Payload map[string]any
}

// Wire serializa al formato de salida: {"type": "<kind>", ...payload al tope}.
// El campo type siempre gana sobre cualquier colisión del payload.
func (n *Notification) Wire() ([]byte, error) {
	doc := make(map[string]any, len(n.Payload)+1)
	for k, v := range n.Payload {
		doc[k] = v
	}
	doc["type"] = n.Type
	return json.Marshal(doc)
}
