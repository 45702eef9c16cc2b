package api

import (
	"context"
	"net/http"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/jwt"
)

type contextKey struct{ name string }

var userContextKey = &contextKey{"user"}

// requireUser authenticates the bearer token and stores the resolved user
// in the request context. Subscription state is re-read from the store on
// every request; billing webhooks mutate it concurrently and a cached copy
// would let a lapsed user keep generating.
func (m *Module) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.BearerToken(r)
		if err != nil {
			m.respondError(w, r, auth.ErrUnauthenticated)
			return
		}

		user, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the authenticated user placed by requireUser. Panics if
// the middleware did not run; that is a routing bug, not a runtime state.
func userFrom(r *http.Request) *auth.User {
	user, ok := r.Context().Value(userContextKey).(*auth.User)
	if !ok {
		panic("api: handler reached without authentication middleware")
	}
	return user
}

// userKey keys per-user rate limits. Falls back to client IP when the
// middleware ordering ever changes.
func (m *Module) userKey(r *http.Request) string {
	if user, ok := r.Context().Value(userContextKey).(*auth.User); ok {
		return "user:" + user.ID.String()
	}
	return r.RemoteAddr
}
