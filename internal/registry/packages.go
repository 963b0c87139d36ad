package registry

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/models"
	"github.com/mwantia/cpkgs/pkg/db/store"
)

// ListPackages returns the expanded views of all packages matching the
// filter, in creation order.
func (s *Service) ListPackages(ctx context.Context, filter store.PackageFilter) ([]api.PackageResponse, error) {
	pkgs, err := s.store.ListPackages(ctx, filter)
	if err != nil {
		return nil, wrapStore(err)
	}
	return packageViews(pkgs), nil
}

// SearchPackages matches the query as a substring of name OR
// description.
func (s *Service) SearchPackages(ctx context.Context, query string) ([]api.PackageResponse, error) {
	return s.ListPackages(ctx, store.PackageFilter{Search: query})
}

// PackageArchive returns the on-disk storage path for the package
// archive. The path is boundary-internal and never part of a view.
func (s *Service) PackageArchive(ctx context.Context, id string) (string, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return "", wrapStore(err)
	}
	return pkg.StoragePath, nil
}

func (s *Service) GetPackage(ctx context.Context, id string) (api.PackageResponse, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}
	return PackageView(pkg), nil
}

// GetPackageByName resolves a package by name and version. An empty
// version picks the latest release, preferring the highest semantic
// version and falling back to the most recently created entry when a
// version string does not parse.
func (s *Service) GetPackageByName(ctx context.Context, name, version string) (api.PackageResponse, error) {
	if version != "" {
		pkg, err := s.store.GetPackageByNameVersion(ctx, name, version)
		if err != nil {
			return api.PackageResponse{}, wrapStore(err)
		}
		return PackageView(pkg), nil
	}

	versions, err := s.store.ListPackageVersions(ctx, name)
	if err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}
	if len(versions) == 0 {
		return api.PackageResponse{}, fmt.Errorf("%w: package %q", ErrNotFound, name)
	}

	latest := &versions[len(versions)-1]
	var latestVer *semver.Version
	for i := range versions {
		ver, err := semver.NewVersion(versions[i].Version)
		if err != nil {
			continue
		}
		if latestVer == nil || ver.GreaterThan(latestVer) {
			latestVer = ver
			latest = &versions[i]
		}
	}
	return PackageView(latest), nil
}

// CreatePackage persists a new package authored by the acting user.
// The author is immutable after creation.
func (s *Service) CreatePackage(ctx context.Context, req api.PackageRequest, actingUserID string) (api.PackageResponse, error) {
	if req.Version != "" {
		if _, err := semver.NewVersion(req.Version); err != nil {
			return api.PackageResponse{}, fmt.Errorf("%w: version %q is not a valid semantic version", ErrValidation, req.Version)
		}
	}

	pkg := &models.Package{
		Name:         req.Name,
		Version:      req.Version,
		Description:  req.Description,
		Maintainer:   req.Maintainer,
		Architecture: req.Architecture,
		Size:         req.Size,
		StoragePath:  storagePath(req.Name, req.Version),
		AuthorID:     actingUserID,
		Dependencies: dependencyModels(req.Dependencies),
		Tags:         tagModels(req.Tags),
	}
	pkg.Checksum = checksum(pkg)

	if err := s.store.CreatePackage(ctx, pkg); err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}

	s.log.Info("Package '%s' version '%s' created", pkg.Name, pkg.Version)

	// Re-read so the view carries the expanded author and tag colors.
	created, err := s.store.GetPackage(ctx, pkg.ID)
	if err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}
	return PackageView(created), nil
}

// UpdatePackage applies the supplied fields, replaces dependencies and
// tags when present, and recomputes the checksum. Only the author or
// an admin may update a package.
func (s *Service) UpdatePackage(ctx context.Context, id string, req api.PackageRequest, acting *models.User) (api.PackageResponse, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}
	if err := s.authorizeOwner(pkg, acting); err != nil {
		return api.PackageResponse{}, err
	}

	if req.Name != "" {
		pkg.Name = req.Name
	}
	if req.Version != "" {
		if _, err := semver.NewVersion(req.Version); err != nil {
			return api.PackageResponse{}, fmt.Errorf("%w: version %q is not a valid semantic version", ErrValidation, req.Version)
		}
		pkg.Version = req.Version
	}
	if req.Description != "" {
		pkg.Description = req.Description
	}
	if req.Maintainer != "" {
		pkg.Maintainer = req.Maintainer
	}
	if req.Architecture != "" {
		pkg.Architecture = req.Architecture
	}
	if req.Size > 0 {
		pkg.Size = req.Size
	}
	pkg.StoragePath = storagePath(pkg.Name, pkg.Version)
	pkg.Checksum = checksum(pkg)

	// nil child sets stay untouched; the store applies fields and
	// children in one transaction
	var deps []models.Dependency
	if req.Dependencies != nil {
		deps = dependencyModels(req.Dependencies)
	}
	if err := s.store.UpdatePackage(ctx, pkg, deps, req.Tags); err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}

	updated, err := s.store.GetPackage(ctx, pkg.ID)
	if err != nil {
		return api.PackageResponse{}, wrapStore(err)
	}
	return PackageView(updated), nil
}

// DeletePackage removes the package and its owned dependency rows and
// tag links. Only the author or an admin may delete a package.
func (s *Service) DeletePackage(ctx context.Context, id string, acting *models.User) error {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return wrapStore(err)
	}
	if err := s.authorizeOwner(pkg, acting); err != nil {
		return err
	}
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return wrapStore(err)
	}
	s.log.Info("Package '%s' version '%s' deleted", pkg.Name, pkg.Version)
	return nil
}

// ListTags returns every tag known to the registry, in name order.
func (s *Service) ListTags(ctx context.Context) ([]api.TagResponse, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, wrapStore(err)
	}
	views := make([]api.TagResponse, 0, len(tags))
	for _, tag := range tags {
		views = append(views, api.TagResponse{Name: tag.Name, Color: tag.Color})
	}
	return views, nil
}

func (s *Service) authorizeOwner(pkg *models.Package, acting *models.User) error {
	if acting == nil {
		return fmt.Errorf("%w: missing acting user", ErrUnauthorized)
	}
	if acting.IsAdmin() || acting.ID == pkg.AuthorID {
		return nil
	}
	return fmt.Errorf("%w: only the author or an admin may modify package %q", ErrForbidden, pkg.Name)
}

func dependencyModels(deps []api.DependencyRequest) []models.Dependency {
	out := make([]models.Dependency, 0, len(deps))
	for _, dep := range deps {
		depType := dep.DependencyType
		if depType == "" {
			depType = models.DependencyRuntime
		}
		out = append(out, models.Dependency{
			Name:    dep.Name,
			Version: dep.Version,
			Type:    depType,
		})
	}
	return out
}

func tagModels(names []string) []models.Tag {
	out := make([]models.Tag, 0, len(names))
	for _, name := range names {
		out = append(out, models.Tag{Name: name})
	}
	return out
}
