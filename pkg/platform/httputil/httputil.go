// Package httputil maps domain errors onto HTTP responses and decodes JSON
// request bodies. Handlers stay free of status-code bookkeeping.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "rollcall/pkg/domain-errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a domain error code onto an HTTP status and writes the
// standard error body. Internal errors omit the description so lower-layer
// detail never leaks to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		body.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, statusFor(code), body)
}

// WriteErrorWith writes a caller-supplied body using the HTTP status the
// error code maps to. Used when a failure response must carry more than the
// standard error body, such as partial batch results.
func WriteErrorWith(w http.ResponseWriter, err error, body any) {
	WriteJSON(w, statusFor(dErrors.CodeOf(err)), body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into T. On failure it writes a
// bad-request response and returns ok=false; the handler just returns.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body", "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body is not valid JSON"))
		return v, false
	}
	return v, true
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
