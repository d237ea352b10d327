package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	jwttoken "rollcall/internal/token"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*jwttoken.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and attaches
// the token-derived principal to the request context. Tokens are stateless:
// a valid signature and unexpired claims are the whole check.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, requestcontext.Principal{
				Subject: claims.Subject,
				Email:   claims.Email,
				Role:    claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
