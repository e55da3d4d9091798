// Package rbac gates routes on the role claims carried in the caller's JWT.
//
// Admin covers catalog and order administration; SuperUser is the narrow
// tier that can grant roles and reach the manual email trigger.
package rbac

import (
	"net/http"

	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

// RequireAdmin allows only callers whose token carries the admin claim.
// Requires middleware.Authenticate to have already run.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		if !ok || !id.Admin {
			response.Error(w, http.StatusForbidden, "You must be an admin to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperUser allows only callers whose token carries the isSuperUser
// claim. Super users are implicitly admins for routing purposes, but the
// reverse does not hold.
func RequireSuperUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		if !ok || !id.SuperUser {
			response.Error(w, http.StatusForbidden, "Only super users can perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
