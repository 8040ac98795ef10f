package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("ok", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":true}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		var p payload
		if !ReadJSON(w, r, &p) {
			t.Fatalf("cuerpo válido rechazado: %s", w.Body.String())
		}
		if p.Name != "x" {
			t.Fatalf("name %q want x", p.Name)
		}
	})

	t.Run("content-type equivocado", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()

		if ReadJSON(w, r, &payload{}) {
			t.Fatalf("aceptó text/plain")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status %d want 400", w.Code)
		}
	})

	t.Run("json roto", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()

		if ReadJSON(w, r, &payload{}) {
			t.Fatalf("aceptó JSON roto")
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp["code"] != "INVALID_JSON" {
			t.Fatalf("code %q want INVALID_JSON", resp["code"])
		}
	})
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status %d want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type %q", ct)
	}
	var doc map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["id"] != "abc" {
		t.Fatalf("body %v", doc)
	}
}
