package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"rollcall/pkg/requestcontext"
)

// RequestID attaches a correlation ID to every request, honoring an
// inbound X-Request-Id when a proxy already assigned one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}
