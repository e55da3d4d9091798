package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/poppys-produce/backend/pkg/auth"
	"github.com/poppys-produce/backend/pkg/response"
)

// Identity is the authenticated caller, as resolved from the bearer token.
type Identity struct {
	UserID    string
	Email     string
	Admin     bool
	SuperUser bool
}

type identityKey struct{}

// Authenticate validates the Authorization bearer token and stores the
// caller's Identity in the request context. Requests without a valid token
// are rejected with 401 before any handler runs.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			response.Error(w, http.StatusUnauthorized, "You must be logged in.")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token. Please log in again.")
			return
		}

		id := Identity{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Admin:     claims.Admin,
			SuperUser: claims.SuperUser,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity stores id in ctx. Exposed for tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the authenticated caller, if any.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
