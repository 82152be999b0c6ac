package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// RequireAdminToken guards admin routes with a shared-secret header and binds
// the configured admin identity as the request actor, so review decisions
// carry a reviewer id. Authorization for the review console lives here, not
// in the services; the services trust whatever actor the transport binds.
func RequireAdminToken(expectedToken string, actor id.UserID, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			// Constant-time comparison to prevent timing attacks.
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(r.Context(), actor)))
		})
	}
}
