package store

import (
	"context"

	"github.com/mwantia/cpkgs/pkg/db/models"
)

// RegistryStore defines the interface for database operations
type RegistryStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// Package operations
	CreatePackage(ctx context.Context, pkg *models.Package) error
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	GetPackageByNameVersion(ctx context.Context, name, version string) (*models.Package, error)
	ListPackageVersions(ctx context.Context, name string) ([]models.Package, error)
	ListPackages(ctx context.Context, filter PackageFilter) ([]models.Package, error)
	// UpdatePackage rewrites the dependency rows and tag links together
	// with the package fields when deps or tags are non-nil; nil leaves
	// the child set untouched.
	UpdatePackage(ctx context.Context, pkg *models.Package, deps []models.Dependency, tags []string) error
	DeletePackage(ctx context.Context, id string) error

	// Tag operations
	ListTags(ctx context.Context) ([]models.Tag, error)

	// Token operations
	CreateToken(ctx context.Context, token *models.AuthToken) error
	GetToken(ctx context.Context, token string) (*models.AuthToken, error)
	DeleteToken(ctx context.Context, token string) error
}
