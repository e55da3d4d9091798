package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poppys-produce/backend/pkg/auth"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/rbac"
)

func protected(t *testing.T) (http.Handler, *middleware.Identity) {
	t.Helper()
	var seen middleware.Identity
	h := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		if !ok {
			t.Error("identity missing inside an authenticated handler")
		}
		seen = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestAuthenticate_ValidToken(t *testing.T) {
	token, err := auth.GenerateToken("user-1", "shop@example.com", false, true)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	h, seen := protected(t)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if seen.UserID != "user-1" || seen.Email != "shop@example.com" || !seen.SuperUser || seen.Admin {
		t.Errorf("identity = %+v", seen)
	}
}

func TestAuthenticate_RejectsMissingAndGarbageTokens(t *testing.T) {
	h, _ := protected(t)

	for _, header := range []string{"", "Bearer not-a-jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestRoleGates(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name string
		gate func(http.Handler) http.Handler
		id   middleware.Identity
		want int
	}{
		{"admin passes admin gate", rbac.RequireAdmin, middleware.Identity{Admin: true}, http.StatusOK},
		{"regular blocked by admin gate", rbac.RequireAdmin, middleware.Identity{}, http.StatusForbidden},
		{"superuser passes superuser gate", rbac.RequireSuperUser, middleware.Identity{SuperUser: true}, http.StatusOK},
		{"admin blocked by superuser gate", rbac.RequireSuperUser, middleware.Identity{Admin: true}, http.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			req = req.WithContext(middleware.WithIdentity(req.Context(), c.id))
			rec := httptest.NewRecorder()
			c.gate(okHandler).ServeHTTP(rec, req)

			if rec.Code != c.want {
				t.Errorf("status = %d, want %d", rec.Code, c.want)
			}
		})
	}
}
