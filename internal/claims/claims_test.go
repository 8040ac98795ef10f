package claims

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, cl jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, cl)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestSubject(t *testing.T) {
	v := NewVerifier("s3cr3t")

	tok := sign(t, "s3cr3t", jwtv5.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	sub, err := v.Subject(tok)
	if err != nil {
		t.Fatalf("Subject err: %v", err)
	}
	if sub != "u1" {
		t.Fatalf("sub %q want u1", sub)
	}
}

func TestSubject_Rejections(t *testing.T) {
	v := NewVerifier("s3cr3t")
	future := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name string
		tok  string
	}{
		{"firma ajena", sign(t, "otro", jwtv5.MapClaims{"sub": "u1", "exp": future})},
		{"expirado", sign(t, "s3cr3t", jwtv5.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"nbf en el futuro", sign(t, "s3cr3t", jwtv5.MapClaims{"sub": "u1", "exp": future, "nbf": time.Now().Add(time.Hour).Unix()})},
		{"sin sub", sign(t, "s3cr3t", jwtv5.MapClaims{"exp": future})},
		{"basura", "no.es.jwt"},
		{"vacío", ""},
	}
	for _, c := range cases {
		if _, err := v.Subject(c.tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken, got %v", c.name, err)
		}
	}
}

func TestSubject_RejectsNonHS256(t *testing.T) {
	// alg:none y compañía no pasan la whitelist de métodos.
	v := NewVerifier("s3cr3t")
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, jwtv5.MapClaims{"sub": "u1"})
	signed, err := tok.SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Subject(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg none aceptado: %v", err)
	}
}

func TestNilVerifier(t *testing.T) {
	// Sin secreto no hay verifier, y el nil receiver es seguro de llamar.
	v := NewVerifier("")
	if v != nil {
		t.Fatalf("verifier sin secreto debe ser nil")
	}
	if _, err := v.Subject("cualquiera"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
