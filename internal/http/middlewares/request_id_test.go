package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestID(t *testing.T) {
	var inCtx string
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		inCtx = GetRequestID(r.Context())
	})
	mw := WithRequestID()(h)

	// El ID del cliente se propaga tal cual.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "rid-123")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, r)
	if w.Header().Get("X-Request-ID") != "rid-123" || inCtx != "rid-123" {
		t.Fatalf("header %q ctx %q want rid-123", w.Header().Get("X-Request-ID"), inCtx)
	}

	// Sin header se genera uno nuevo (16 bytes hex).
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get("X-Request-ID")
	if len(rid) != 32 || rid != inCtx {
		t.Fatalf("rid generado %q (ctx %q)", rid, inCtx)
	}
}
