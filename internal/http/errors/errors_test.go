package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromError(t *testing.T) {
	// Un *AppError pasa tal cual.
	if got := FromError(ErrNotFound); got != ErrNotFound {
		t.Fatalf("got %v want ErrNotFound", got)
	}

	// Cualquier otro error se envuelve como 500 conservando la causa.
	cause := errors.New("boom")
	got := FromError(cause)
	if got.Code != ErrInternalServerError.Code {
		t.Fatalf("code %q want %q", got.Code, ErrInternalServerError.Code)
	}
	if !errors.Is(got, cause) {
		t.Fatalf("causa perdida: %v", got)
	}
}

func TestWithDetail_CopiesBase(t *testing.T) {
	detailed := ErrBadRequest.WithDetail("falta name")
	if detailed.Detail != "falta name" {
		t.Fatalf("detail %q", detailed.Detail)
	}
	// La variable base no se muta.
	if ErrBadRequest.Detail != "" {
		t.Fatalf("WithDetail mutó la base: %q", ErrBadRequest.Detail)
	}
	if detailed.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("status %d", detailed.HTTPStatus)
	}
}

func TestAppError_Error(t *testing.T) {
	plain := New(http.StatusTeapot, "TEAPOT", "soy una tetera")
	if got := plain.Error(); got != "[TEAPOT] soy una tetera" {
		t.Fatalf("Error() = %q", got)
	}
	withCause := plain.WithCause(errors.New("boom"))
	if got := withCause.Error(); got != "[TEAPOT] soy una tetera: boom" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrInviteExpired.WithDetail("venció ayer"))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d want 422", w.Code)
	}
	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "INVITE_EXPIRED" || resp.Detail != "venció ayer" {
		t.Fatalf("body %+v", resp)
	}

	// Un error genérico nunca filtra su mensaje interno al cliente.
	w = httptest.NewRecorder()
	WriteError(w, errors.New("pg: connection refused"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d want 500", w.Code)
	}
	// json.Unmarshal no modifica campos ausentes del JSON; limpiar el estado
	// del caso anterior antes de reutilizar la estructura.
	resp.Code, resp.Message, resp.Detail = "", "", ""
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("code %q", resp.Code)
	}
	if resp.Detail != "" {
		t.Fatalf("la causa interna se filtró: %q", resp.Detail)
	}
}
