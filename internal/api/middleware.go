package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/db/models"
)

type contextKey string

const userContextKey contextKey = "cpkgs.user"

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// requireAuth resolves the bearer token to a user before the facade is
// invoked. Missing or invalid credentials never reach a handler.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeError(w, fmt.Errorf("%w: missing bearer token", registry.ErrUnauthorized))
			return
		}

		user, err := h.svc.ValidateToken(r.Context(), token)
		if err != nil {
			h.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin additionally demands the admin role.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || !user.IsAdmin() {
			h.writeError(w, fmt.Errorf("%w: admin role required", registry.ErrForbidden))
			return
		}
		next(w, r)
	})
}

func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// logRequests emits one line per request, the registry's equivalent of
// the usual HTTP trace layer.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
