// Package testutil provides common helpers for handler and integration
// tests.
package testutil

import (
	"context"
	"net/http"
	"time"

	id "github.com/markdevonuk/portal/pkg/domain"
	"github.com/markdevonuk/portal/pkg/requestcontext"
)

// WithUserID binds an actor to the request context, simulating what the auth
// middleware does for authenticated requests. Invalid ids are ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithTime pins the request time so services that read
// requestcontext.Now(ctx) are deterministic.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// Context builds a bare service-level context with an actor and a pinned
// time, for tests that bypass the HTTP layer.
func Context(userID string, now time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	return ctx
}
