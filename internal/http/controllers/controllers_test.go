package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/easelhq/easel/internal/entities"
	"github.com/easelhq/easel/internal/store/core"
)

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("get project: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("name is required: %w", core.ErrInvalid), http.StatusBadRequest},
		{errors.New("pg down"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := mapStoreError(c.err); got.HTTPStatus != c.wantStatus {
			t.Fatalf("%v => %d want %d", c.err, got.HTTPStatus, c.wantStatus)
		}
	}

	// La validación viaja con el mensaje del servicio en detail.
	got := mapStoreError(fmt.Errorf("name is required: %w", core.ErrInvalid))
	if got.Detail == "" {
		t.Fatalf("un 400 sin detail no le dice nada al cliente")
	}
}

func TestMapInviteError(t *testing.T) {
	cases := []struct {
		err      error
		wantCode string
	}{
		{entities.ErrInviteNotFound, "NOT_FOUND"},
		{entities.ErrInviteUsed, "INVITE_USED"},
		{entities.ErrInviteExpired, "INVITE_EXPIRED"},
		{entities.ErrInviteEmail, "INVITE_EMAIL_MISMATCH"},
		{core.ErrNotFound, "NOT_FOUND"},
		{errors.New("boom"), "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		if got := mapInviteError(c.err); got.Code != c.wantCode {
			t.Fatalf("%v => %q want %q", c.err, got.Code, c.wantCode)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	methodNotAllowed(w, "GET, POST")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d want 405", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "GET, POST" {
		t.Fatalf("allow %q", got)
	}
}
