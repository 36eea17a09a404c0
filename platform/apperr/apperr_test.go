package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusForbidden},
		{InvalidState("x"), http.StatusUnprocessableEntity},
		{Internal("x"), http.StatusInternalServerError},
		{New(KindUnknown, "x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: HTTPStatus() = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestGetKindFollowsWrappedChain(t *testing.T) {
	err := fmt.Errorf("schedule: %w", Conflict("slot taken"))

	if !Is(err, KindConflict) {
		t.Fatalf("expected wrapped error to report KindConflict, got %d", GetKind(err))
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected plain error to report KindUnknown")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound("appointment not found").WithOp("cancel")
	if err.Error() != "cancel: appointment not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKindString(t *testing.T) {
	if KindInvalidState.String() != "invalid_state" {
		t.Fatalf("String() = %q", KindInvalidState.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Fatalf("String() = %q", Kind(99).String())
	}
}
