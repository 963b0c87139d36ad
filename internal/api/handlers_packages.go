package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/store"
)

// handleListPackages accepts the optional query parameters search, tag,
// maintainer, limit and offset.
func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := store.PackageFilter{
		Search:     params.Get("search"),
		Tag:        params.Get("tag"),
		Maintainer: params.Get("maintainer"),
	}
	if raw := params.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := params.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}

	pkgs, err := h.svc.ListPackages(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkgs)
}

func (h *Handler) handleSearchPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.svc.SearchPackages(r.Context(), r.PathValue("query"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkgs)
}

// handleGetPackage resolves the path segment first as a package id and
// then as a package name, serving the latest version in the latter
// case. The CLI installs by name; the API addresses by id.
func (h *Handler) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	pkg, err := h.svc.GetPackage(r.Context(), id)
	if errors.Is(err, registry.ErrNotFound) {
		pkg, err = h.svc.GetPackageByName(r.Context(), id, "")
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (h *Handler) handleGetPackageVersion(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.svc.GetPackageByName(r.Context(), r.PathValue("name"), r.PathValue("version"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (h *Handler) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	payload, err := decode[api.PackageRequest](r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pkg, err := h.svc.CreatePackage(r.Context(), payload, currentUser(r).ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pkg)
}

func (h *Handler) handleUpdatePackage(w http.ResponseWriter, r *http.Request) {
	payload, err := decode[api.PackageRequest](r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pkg, err := h.svc.UpdatePackage(r.Context(), r.PathValue("id"), payload, currentUser(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (h *Handler) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePackage(r.Context(), r.PathValue("id"), currentUser(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// handleDownloadPackage streams the stored archive when it exists on
// disk. The registry stores metadata, not package content, so a missing
// archive is a NotFound rather than a failure.
func (h *Handler) handleDownloadPackage(w http.ResponseWriter, r *http.Request) {
	archive, err := h.svc.PackageArchive(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := os.Stat(archive); err != nil {
		h.writeError(w, fmt.Errorf("%w: package archive not available", registry.ErrNotFound))
		return
	}
	http.ServeFile(w, r, archive)
}
