package domain

import "strings"

// Prefijos tipados de la tabla única. El prefijo de la partition key de una
// fila es la única señal que usa el clasificador del stream para rutear.
const (
	PrefixProject    = "PROJECT#"
	PrefixBlock      = "BLOCK#"
	PrefixImage      = "IMAGE#"
	PrefixAnnotation = "ANNOTATION#"
	PrefixClass      = "CLASS#"
	PrefixConnection = "CONNECTION#"
	PrefixUser       = "USER#"
	PrefixInvite     = "INVITE#"
)

// MetadataSK es el sort key fijo para filas sin padre (invites).
const MetadataSK = "METADATA"

func ProjectKey(id string) string    { return PrefixProject + id }
func BlockKey(id string) string      { return PrefixBlock + id }
func ImageKey(id string) string      { return PrefixImage + id }
func AnnotationKey(id string) string { return PrefixAnnotation + id }
func ClassKey(id string) string      { return PrefixClass + id }
func ConnectionKey(id string) string { return PrefixConnection + id }
func UserKey(id string) string       { return PrefixUser + id }
func InviteKey(code string) string   { return PrefixInvite + code }

// IDFromKey retorna la porción después del prefijo ("IMAGE#img7" => "img7").
// Si la clave no tiene '#', retorna la clave entera.
func IDFromKey(key string) string {
	if _, rest, ok := strings.Cut(key, "#"); ok {
		return rest
	}
	return key
}
