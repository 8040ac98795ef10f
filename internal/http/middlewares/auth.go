package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/easelhq/easel/internal/claims"
	"github.com/easelhq/easel/internal/http/errors"
	"github.com/easelhq/easel/internal/observability/logger"
)

// WithIdentity resuelve la identidad del request y la deja en el contexto.
// Orden: claim sub del token verificado, user_id por query, sentinel anónimo.
// Nunca rechaza: la API es colaborativa y las rutas deciden qué exigir.
func WithIdentity(verifier *claims.Verifier, anonymous string) Middleware {
	if anonymous == "" {
		anonymous = "anonymous"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""

			tok := bearerToken(r)
			if tok != "" {
				sub, err := verifier.Subject(tok)
				if err == nil {
					userID = sub
				} else {
					logger.From(r.Context()).Debug("token rechazado", logger.Err(err))
				}
			}
			if userID == "" {
				userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
			}
			if userID == "" {
				userID = anonymous
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rechaza requests cuya identidad quedó en el sentinel
// anónimo. Para rutas que necesitan un usuario concreto (p.ej. /users/me).
func RequireIdentity(anonymous string) Middleware {
	if anonymous == "" {
		anonymous = "anonymous"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := GetUserID(r.Context())
			if uid == "" || uid == anonymous {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIKey protege la superficie interna (push receiver, admin) con una
// clave compartida en X-Internal-API-Key. Con clave vacía el middleware
// deja pasar todo; pensado sólo para dev.
func RequireAPIKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Internal-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimPrefix(ah, "Bearer ")
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
