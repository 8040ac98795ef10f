// Package claims valida los tokens del proveedor de identidad externo y
// extrae el subject. La aplicación nunca emite tokens, sólo los verifica.
package claims

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier valida JWT HS256 contra el secreto compartido con el proveedor.
type Verifier struct {
	secret []byte
}

// NewVerifier retorna nil si no hay secreto configurado; el caller trata un
// verifier nil como "sin autenticación por token".
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return nil
	}
	return &Verifier{secret: []byte(secret)}
}

// Subject valida firma y vigencia (exp/nbf con tolerancia chica) y retorna
// la claim sub.
func (v *Verifier) Subject(token string) (string, error) {
	if v == nil || token == "" {
		return "", ErrInvalidToken
	}

	keyfunc := func(*jwtv5.Token) (any, error) { return v.secret, nil }
	tok, err := jwtv5.Parse(token, keyfunc, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}

	cl, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	now := time.Now()
	if expf, ok := cl["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(now.Add(-30 * time.Second)) {
			return "", ErrInvalidToken
		}
	}
	if nbff, ok := cl["nbf"].(float64); ok {
		if time.Unix(int64(nbff), 0).After(now.Add(30 * time.Second)) {
			return "", ErrInvalidToken
		}
	}

	sub, _ := cl["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
