package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// RequestMeta stamps each request with an id and a request-scoped "now".
// Every operation within a single request observes the same timestamp, which
// keeps submittedAt/reviewedAt values consistent across multi-write paths.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
