package helpers

import "strings"

// PathSegments recorta prefix del path y devuelve los segmentos restantes
// no vacíos. Sirve para rutas con params sin un router de terceros:
//
//	PathSegments("/v1/projects/abc/blocks", "/v1/projects/") => ["abc", "blocks"]
//
// Devuelve nil si el path no empieza con prefix.
func PathSegments(path, prefix string) []string {
	if !strings.HasPrefix(path, prefix) {
		return nil
	}
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return []string{}
	}
	return strings.Split(rest, "/")
}
