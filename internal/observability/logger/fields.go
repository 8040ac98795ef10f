package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/util"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// UserAgent crea un campo para el User-Agent.
func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// ProjectID crea un campo para el ID del proyecto.
func ProjectID(v string) zap.Field {
	return zap.String("project_id", v)
}

// BlockID crea un campo para el ID del block.
func BlockID(v string) zap.Field {
	return zap.String("block_id", v)
}

// ImageID crea un campo para el ID de la imagen.
func ImageID(v string) zap.Field {
	return zap.String("image_id", v)
}

// AnnotationID crea un campo para el ID de la anotación.
func AnnotationID(v string) zap.Field {
	return zap.String("annotation_id", v)
}

// ClassID crea un campo para el ID de la clase de anotación.
func ClassID(v string) zap.Field {
	return zap.String("class_id", v)
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// ConnectionID crea un campo para el ID de una conexión WebSocket.
func ConnectionID(v string) zap.Field {
	return zap.String("connection_id", v)
}

// Action crea un campo para la acción de un mensaje entrante.
func Action(v string) zap.Field {
	return zap.String("action", v)
}

// NotificationType crea un campo para el tipo de notificación saliente.
func NotificationType(v string) zap.Field {
	return zap.String("type", v)
}

// Seq crea un campo para la posición en el changelog.
func Seq(v int64) zap.Field {
	return zap.Int64("seq", v)
}

// Email crea un campo para el email, enmascarado para no filtrar PII en los logs.
func Email(v string) zap.Field {
	return zap.String("email", util.MaskEmail(v))
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (handler, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS ESTÁNDAR - DATOS
// =================================================================================

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// ID crea un campo genérico para un ID.
func ID(v string) zap.Field {
	return zap.String("id", v)
}

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
