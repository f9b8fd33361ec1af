package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(NotFound("x")) != KindNotFound {
		t.Error("expected KindNotFound")
	}
	if KindOf(Conflict("x")) != KindConflict {
		t.Error("expected KindConflict")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("expected unclassified error to be KindInternal")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("issuing invitation: %w", Conflict("already invited"))
	if KindOf(err) != KindConflict {
		t.Error("expected wrapped conflict to keep its kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Expired("gone"), http.StatusGone},
		{Forbidden("no"), http.StatusForbidden},
		{Validation("bad"), http.StatusBadRequest},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessage_InternalIsGeneric(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	if Message(err) != "internal error" {
		t.Errorf("internal message leaked: %s", Message(err))
	}
	if Message(Validation("email is required")) != "email is required" {
		t.Error("expected validation message to pass through")
	}
}

func TestErrorsIs_MatchesOnKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Expired("invitation expired"))
	if !errors.Is(err, Expired("")) {
		t.Error("expected errors.Is to match on kind")
	}
	if errors.Is(err, Conflict("")) {
		t.Error("unexpected kind match")
	}
}
