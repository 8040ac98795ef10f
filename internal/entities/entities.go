// Package entities implementa los servicios CRUD del dominio sobre la tabla
// única. Es la capa compartida entre el API REST y el dispatch de acciones
// WebSocket: toda mutación que pasa por acá queda en el changelog y termina
// en el fan-out.
package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/easelhq/easel/internal/cache"
	"github.com/easelhq/easel/internal/email"
	"github.com/easelhq/easel/internal/store/core"
)

// Deps agrupa las dependencias compartidas de los servicios.
type Deps struct {
	KV       core.KV
	Cache    cache.Client // opcional; sin cache los reads van directo a la tabla
	CacheTTL time.Duration
	Mailer   email.Sender // opcional; sin mailer los invites sólo se persisten
	Email    EmailConfig
}

// EmailConfig parametriza los mails de invitación.
type EmailConfig struct {
	FrontendURL string
	ExpiresDays int
}

// Services agrupa los servicios de entidades sobre un mismo repositorio.
type Services struct {
	Projects    *ProjectService
	Blocks      *BlockService
	Images      *ImageService
	Annotations *AnnotationService
	Classes     *ClassService
	Users       *UserService
	Invites     *InviteService
}

// NewServices arma el grafo completo. Las cascadas de borrado van en cadena:
// Projects borra via Blocks, Blocks via Images.
func NewServices(d Deps) *Services {
	classes := NewClassService(d.KV)
	images := NewImageService(d.KV)
	blocks := NewBlockService(d.KV, images)
	return &Services{
		Projects:    NewProjectService(d.KV, blocks, d.Cache, d.CacheTTL),
		Blocks:      blocks,
		Images:      images,
		Annotations: NewAnnotationService(d.KV, classes),
		Classes:     classes,
		Users:       NewUserService(d.KV),
		Invites:     NewInviteService(d.KV, d.Mailer, d.Email),
	}
}

// invalidf construye un error de validación que satisface
// errors.Is(err, core.ErrInvalid).
func invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, core.ErrInvalid)...)
}

// attrs aplana la entidad a sus atributos wire y agrega las claves de la
// fila: PK y SK viajan dentro del documento, igual que en una imagen de
// stream, porque el clasificador rutea por el atributo PK.
func attrs(v any, pk, sk string) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["PK"] = pk
	m["SK"] = sk
	return m, nil
}

// decode rellena la entidad desde los atributos de una fila (PK/SK y campos
// desconocidos se ignoran).
func decode(m map[string]any, v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
