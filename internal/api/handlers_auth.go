package api

import (
	"fmt"
	"net/http"

	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/api"
)

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := decode[api.LoginRequest](r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.svc.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	payload, err := decode[api.UserRequest](r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.svc.Register(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.writeError(w, fmt.Errorf("%w: missing bearer token", registry.ErrUnauthorized))
		return
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
