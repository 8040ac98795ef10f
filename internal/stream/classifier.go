// Package stream consume el changelog en batches ordenados, clasifica cada
// registro en una notificación de dominio y la entrega al dispatcher.
package stream

import (
	"fmt"
	"strings"

	"github.com/easelhq/easel/internal/domain"
	"github.com/easelhq/easel/internal/store/core"
)

// entityByPrefix es la única señal de ruteo: el prefijo tipado de la PK.
var entityByPrefix = []struct {
	prefix string
	entity string
}{
	{domain.PrefixProject, "project"},
	{domain.PrefixBlock, "block"},
	{domain.PrefixImage, "image"},
	{domain.PrefixAnnotation, "annotation"},
	{domain.PrefixClass, "class"},
}

// Classify deriva la notificación de un registro del changelog.
//
// Retorna (nil, nil) cuando el registro se descarta sin ser error: filas de
// bookkeeping del registry (CONNECTION#), prefijos fuera del set de
// entidades y operaciones desconocidas. Retorna error sólo para registros
// malformados (imagen sin PK); el caller los loguea y sigue con el batch.
func Classify(rec core.ChangeRecord) (*Notification, error) {
	// Imagen efectiva: after si viene con contenido, si no before (REMOVE
	// sólo trae el estado previo).
	image := rec.After
	if len(image) == 0 {
		image = rec.Before
	}

	pk, _ := image["PK"].(string)
	if pk == "" {
		return nil, fmt.Errorf("record %d: missing PK in image", rec.Seq)
	}

	// Las filas del registry no son datos de dominio.
	if strings.HasPrefix(pk, domain.PrefixConnection) {
		return nil, nil
	}

	entity := ""
	for _, e := range entityByPrefix {
		if strings.HasPrefix(pk, e.prefix) {
			entity = e.entity
			break
		}
	}
	if entity == "" {
		return nil, nil
	}

	switch rec.Op {
	case core.OpInsert:
		return &Notification{Type: entity + "_created", Payload: rec.After}, nil
	case core.OpModify:
		return &Notification{Type: entity + "_updated", Payload: rec.After}, nil
	case core.OpRemove:
		// Para deletes viaja sólo el identificador, nunca la imagen previa.
		return &Notification{
			Type:    entity + "_deleted",
			Payload: map[string]any{"id": domain.IDFromKey(pk)},
		}, nil
	default:
		return nil, nil
	}
}
