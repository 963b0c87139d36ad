package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/mwantia/cpkgs/pkg/db/migrations"
	"github.com/mwantia/cpkgs/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements RegistryStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed registry store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		// Unique index violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// User operations

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	return translate(s.db.WithContext(ctx).Omit("Packages").Create(user).Error)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error
	return users, translate(err)
}

// UpdateUser writes the mutable user fields, guarded by the affected
// row count so a concurrently deleted user is never re-created.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Select("username", "email", "role", "password_hash").
		Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and its issued tokens. Authored packages
// keep their author_id and are intentionally left in place.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	}))
}

// Package operations

// CreatePackage persists the package together with its dependency rows
// and tag links. Tags are resolved by name and created on demand; the
// (name, version) unique index makes concurrent duplicate creates fail
// with ErrDuplicate.
func (s *SQLiteStore) CreatePackage(ctx context.Context, pkg *models.Package) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, tagNames(pkg.Tags))
		if err != nil {
			return err
		}
		pkg.Tags = tags
		return tx.Create(pkg).Error
	}))
}

func (s *SQLiteStore) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	err := s.packageScope(ctx).Where("packages.id = ?", id).First(&pkg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pkg, nil
}

func (s *SQLiteStore) GetPackageByNameVersion(ctx context.Context, name, version string) (*models.Package, error) {
	var pkg models.Package
	err := s.packageScope(ctx).
		Where("packages.name = ? AND packages.version = ?", name, version).
		First(&pkg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pkg, nil
}

func (s *SQLiteStore) ListPackageVersions(ctx context.Context, name string) ([]models.Package, error) {
	var pkgs []models.Package
	err := s.packageScope(ctx).
		Where("packages.name = ?", name).
		Order("packages.created_at").
		Find(&pkgs).Error
	return pkgs, translate(err)
}

// ListPackages applies the filter predicates AND-combined, in stable
// creation order, with pagination after filtering. Each call evaluates
// against current state.
func (s *SQLiteStore) ListPackages(ctx context.Context, filter PackageFilter) ([]models.Package, error) {
	query := s.packageScope(ctx)

	if filter.Search != "" {
		// instr keeps the match case-sensitive, unlike SQLite LIKE
		query = query.Where("instr(packages.name, ?) > 0 OR instr(packages.description, ?) > 0",
			filter.Search, filter.Search)
	}
	if filter.Maintainer != "" {
		query = query.Where("packages.maintainer = ?", filter.Maintainer)
	}
	if filter.AuthorID != "" {
		query = query.Where("packages.author_id = ?", filter.AuthorID)
	}
	if filter.Tag != "" {
		query = query.
			Joins("JOIN package_tags ON package_tags.package_id = packages.id").
			Joins("JOIN tags ON tags.id = package_tags.tag_id").
			Where("tags.name = ?", filter.Tag)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var pkgs []models.Package
	err := query.Order("packages.created_at").Find(&pkgs).Error
	return pkgs, translate(err)
}

// packageUpdateColumns are the fields an update may change. The id and
// author are immutable after creation.
var packageUpdateColumns = []string{
	"name", "version", "description", "maintainer",
	"architecture", "size", "checksum", "storage_path",
}

// UpdatePackage writes the mutable package fields and, when deps or
// tags are non-nil, rewrites those child sets, all in one transaction.
// The field update is guarded by the affected row count so an update
// racing a delete fails with ErrNotFound instead of re-creating the
// package or restoring its children.
func (s *SQLiteStore) UpdatePackage(ctx context.Context, pkg *models.Package, deps []models.Dependency, tags []string) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Package{ID: pkg.ID}).
			Select(packageUpdateColumns).
			Updates(pkg)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if deps != nil {
			if err := replaceDependencies(tx, pkg.ID, deps); err != nil {
				return err
			}
		}
		if tags != nil {
			return replaceTags(tx, pkg.ID, tags)
		}
		return nil
	}))
}

// DeletePackage removes the package, its dependency rows and its tag
// links. Tag rows themselves survive since they may be shared.
func (s *SQLiteStore) DeletePackage(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pkg models.Package
		if err := tx.Where("id = ?", id).First(&pkg).Error; err != nil {
			return err
		}
		return tx.Select("Dependencies", "Tags").Delete(&pkg).Error
	}))
}

// Tag operations

func (s *SQLiteStore) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, translate(err)
}

// replaceDependencies rewrites the package's dependency rows inside
// the caller's transaction.
func replaceDependencies(tx *gorm.DB, packageID string, deps []models.Dependency) error {
	if err := tx.Where("package_id = ?", packageID).Delete(&models.Dependency{}).Error; err != nil {
		return err
	}
	for i := range deps {
		deps[i].ID = 0
		deps[i].PackageID = packageID
		if deps[i].Type == "" {
			deps[i].Type = models.DependencyRuntime
		}
	}
	if len(deps) == 0 {
		return nil
	}
	return tx.Create(&deps).Error
}

// replaceTags rewrites the package's tag set inside the caller's
// transaction, creating missing tags on demand.
func replaceTags(tx *gorm.DB, packageID string, names []string) error {
	tags, err := resolveTags(tx, names)
	if err != nil {
		return err
	}
	pkg := models.Package{ID: packageID}
	assoc := tx.Model(&pkg).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	ptrs := make([]*models.Tag, len(tags))
	for i := range tags {
		ptrs[i] = &tags[i]
	}
	return assoc.Replace(ptrs)
}

// Token operations

func (s *SQLiteStore) CreateToken(ctx context.Context, token *models.AuthToken) error {
	return translate(s.db.WithContext(ctx).Omit("User").Create(token).Error)
}

func (s *SQLiteStore) GetToken(ctx context.Context, token string) (*models.AuthToken, error) {
	var record models.AuthToken
	err := s.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&record).Error
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// DeleteToken is idempotent so logout can never fail on a stale token.
func (s *SQLiteStore) DeleteToken(ctx context.Context, token string) error {
	return translate(s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.AuthToken{}).Error)
}

// Helpers

func (s *SQLiteStore) packageScope(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Package{}).
		Preload("Author").
		Preload("Dependencies").
		Preload("Tags")
}

func resolveTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

func validateUser(user *models.User) error {
	if user.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if user.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !strings.Contains(user.Email, "@") {
		return fmt.Errorf("%w: malformed email %q", ErrValidation, user.Email)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: password credential is required", ErrValidation)
	}
	return nil
}

func validatePackage(pkg *models.Package) error {
	if pkg.Name == "" {
		return fmt.Errorf("%w: package name is required", ErrValidation)
	}
	if pkg.Version == "" {
		return fmt.Errorf("%w: package version is required", ErrValidation)
	}
	if pkg.Maintainer == "" {
		return fmt.Errorf("%w: package maintainer is required", ErrValidation)
	}
	if pkg.Architecture == "" {
		return fmt.Errorf("%w: package architecture is required", ErrValidation)
	}
	if pkg.Size < 0 {
		return fmt.Errorf("%w: package size must not be negative", ErrValidation)
	}
	if pkg.AuthorID == "" {
		return fmt.Errorf("%w: package author is required", ErrValidation)
	}
	return nil
}
