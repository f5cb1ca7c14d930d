package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-token-service/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyCaller stores the authenticated caller extracted from the
// trusted identity headers.
const ContextKeyCaller ContextKey = "caller"

// TrustedIdentity is middleware that turns the trusted identity headers into
// an authenticated caller. The headers are set by the upstream
// authentication proxy; requests that reach this service without them were
// never authenticated. No storage call happens before this check.
func (s *Server) TrustedIdentity() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			caller, err := auth.ExtractIdentity(headerValue(r, HeaderAuthUser), headerValue(r, HeaderAuthScope))
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyCaller, caller)
			next(w, r.WithContext(ctx))
		}
	}
}

// callerFromContext retrieves the caller injected by TrustedIdentity.
func callerFromContext(ctx context.Context) (auth.Caller, bool) {
	caller, ok := ctx.Value(ContextKeyCaller).(auth.Caller)
	return caller, ok
}

// headerValue distinguishes an absent header (nil) from a present one, since
// identity extraction treats those differently.
func headerValue(r *http.Request, name string) *string {
	values, ok := r.Header[http.CanonicalHeaderKey(name)]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
