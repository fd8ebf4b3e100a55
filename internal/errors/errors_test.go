package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ENotFound, "project missing")

	if err.Error() != "E_NOT_FOUND: project missing" {
		t.Errorf("Error() = %q, want %q", err.Error(), "E_NOT_FOUND: project missing")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(EPublishFailed, "GitHub push failed", cause)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As failed")
	}
	if e.Cause != cause {
		t.Error("Cause not preserved")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestValidationCarriesField(t *testing.T) {
	err := Validation("slug", "must be lowercase")

	e, ok := As(err)
	if !ok {
		t.Fatal("As failed")
	}
	if e.Details["field"] != "slug" {
		t.Errorf("field = %q, want slug", e.Details["field"])
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil error", nil, ""},
		{"coded error", New(EConflict, "x"), EConflict},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ENotConfigured, "y")), ENotConfigured},
		{"plain error", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{EValidation, http.StatusBadRequest},
		{ENotFound, http.StatusNotFound},
		{EConflict, http.StatusConflict},
		{ENotConfigured, http.StatusBadRequest},
		{EServiceUnavailable, http.StatusServiceUnavailable},
		{EPublishFailed, http.StatusBadGateway},
		{EInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}

	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("uncoded error status = %d, want 500", got)
	}
}
