// Package api exposes the registry facade over HTTP. Routing sticks to
// the standard library mux; every payload is decoded once into the
// typed records from pkg/api.
package api

import (
	"net/http"

	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/log"
)

// Handler bundles the facade with the route table.
type Handler struct {
	svc *registry.Service
	log log.LoggerService
}

// NewHandler builds the full registry route table.
func NewHandler(svc *registry.Service, logger log.LoggerService) http.Handler {
	h := &Handler{
		svc: svc,
		log: logger.Named("http"),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleHealth)

	// Auth
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)

	// Packages; reads are public, mutation needs a token
	mux.HandleFunc("GET /api/packages", h.handleListPackages)
	mux.HandleFunc("POST /api/packages", h.requireAuth(h.handleCreatePackage))
	mux.HandleFunc("GET /api/packages/search/{query}", h.handleSearchPackages)
	mux.HandleFunc("GET /api/packages/{id}", h.handleGetPackage)
	mux.HandleFunc("GET /api/packages/{name}/{version}", h.handleGetPackageVersion)
	mux.HandleFunc("GET /api/packages/{id}/download", h.requireAuth(h.handleDownloadPackage))
	mux.HandleFunc("PUT /api/packages/{id}", h.requireAuth(h.handleUpdatePackage))
	mux.HandleFunc("DELETE /api/packages/{id}", h.requireAuth(h.handleDeletePackage))

	// Tags
	mux.HandleFunc("GET /api/tags", h.handleListTags)

	// Users; administration is admin-only
	mux.HandleFunc("GET /api/users", h.requireAdmin(h.handleListUsers))
	mux.HandleFunc("POST /api/users", h.requireAdmin(h.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", h.requireAdmin(h.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}", h.requireAdmin(h.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", h.requireAdmin(h.handleDeleteUser))
	mux.HandleFunc("GET /api/users/{id}/packages", h.requireAuth(h.handleListUserPackages))

	return h.logRequests(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("Registry Service is running!"))
}
