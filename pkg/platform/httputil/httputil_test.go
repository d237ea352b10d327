package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "rollcall/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("conflict includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "email, phone or ID already registered"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error_description"] != "email, phone or ID already registered" {
			t.Fatalf("unexpected description %q", body["error_description"])
		}
	})

	t.Run("plain errors map to internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("unvarnished"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestStatusMapping(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:   http.StatusBadRequest,
		dErrors.CodeBadRequest:   http.StatusBadRequest,
		dErrors.CodeUnauthorized: http.StatusUnauthorized,
		dErrors.CodeForbidden:    http.StatusForbidden,
		dErrors.CodeNotFound:     http.StatusNotFound,
		dErrors.CodeConflict:     http.StatusConflict,
		dErrors.CodeInternal:     http.StatusInternalServerError,
	}
	for code, expected := range cases {
		if got := statusFor(code); got != expected {
			t.Fatalf("statusFor(%s) = %d, expected %d", code, got, expected)
		}
	}
}
