package registry

import (
	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/models"
)

// PackageView assembles the externally visible projection: identity
// fields plus the expanded author reference, dependencies and tags.
func PackageView(pkg *models.Package) api.PackageResponse {
	deps := make([]api.DependencyResponse, 0, len(pkg.Dependencies))
	for _, dep := range pkg.Dependencies {
		deps = append(deps, api.DependencyResponse{
			Name:           dep.Name,
			Version:        dep.Version,
			DependencyType: dep.Type,
		})
	}

	tags := make([]api.TagResponse, 0, len(pkg.Tags))
	for _, tag := range pkg.Tags {
		tags = append(tags, api.TagResponse{
			Name:  tag.Name,
			Color: tag.Color,
		})
	}

	return api.PackageResponse{
		ID:           pkg.ID,
		Name:         pkg.Name,
		Version:      pkg.Version,
		Description:  pkg.Description,
		Maintainer:   pkg.Maintainer,
		Architecture: pkg.Architecture,
		Size:         pkg.Size,
		Checksum:     pkg.Checksum,
		CreatedAt:    pkg.CreatedAt,
		UpdatedAt:    pkg.UpdatedAt,
		Author: api.AuthorResponse{
			ID:       pkg.AuthorID,
			Username: pkg.Author.Username,
		},
		Dependencies: deps,
		Tags:         tags,
	}
}

// UserView omits the credential.
func UserView(user *models.User) api.UserResponse {
	return api.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func packageViews(pkgs []models.Package) []api.PackageResponse {
	views := make([]api.PackageResponse, 0, len(pkgs))
	for i := range pkgs {
		views = append(views, PackageView(&pkgs[i]))
	}
	return views
}

func userViews(users []models.User) []api.UserResponse {
	views := make([]api.UserResponse, 0, len(users))
	for i := range users {
		views = append(views, UserView(&users[i]))
	}
	return views
}
