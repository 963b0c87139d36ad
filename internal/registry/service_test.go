package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/mwantia/cpkgs/internal/config/server"
	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/models"
	"github.com/mwantia/cpkgs/pkg/db/store"
	"github.com/mwantia/cpkgs/pkg/log"
)

// setupTestService creates a service on a migrated temporary store.
func setupTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: dbPath})
	require.NoError(t, err, "Failed to create test store")

	ctx := context.Background()
	require.NoError(t, st.Connect(ctx))
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })

	logger := log.NewLoggerService("test", config.LogServerConfig{Level: "fatal"})
	return NewService(st, logger), st
}

func registerTestUser(t *testing.T, svc *Service, username, password string) api.AuthResponse {
	t.Helper()

	auth, err := svc.Register(context.Background(), api.UserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return auth
}

func testUserModel(t *testing.T, st *store.SQLiteStore, id string) *models.User {
	t.Helper()

	user, err := st.GetUser(context.Background(), id)
	require.NoError(t, err)
	return user
}

func makeAdmin(t *testing.T, st *store.SQLiteStore, id string) *models.User {
	t.Helper()

	user := testUserModel(t, st, id)
	user.Role = models.RoleAdmin
	require.NoError(t, st.UpdateUser(context.Background(), user))
	return user
}

func testPackageRequest(name, version string) api.PackageRequest {
	return api.PackageRequest{
		Name:         name,
		Version:      version,
		Description:  "A test package",
		Maintainer:   "tester",
		Architecture: "amd64",
		Size:         1024,
	}
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "bob", auth.User.Username)
	require.Equal(t, models.RoleUser, auth.User.Role)

	login, err := svc.Authenticate(ctx, "bob", "building")
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	require.NotEqual(t, auth.Token, login.Token, "Each login issues a fresh token")
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "bob", "building")

	_, err := svc.Authenticate(ctx, "bob", "burning")
	require.ErrorIs(t, err, ErrUnauthorized)

	// An unknown user fails identically
	_, unknownErr := svc.Authenticate(ctx, "mallory", "building")
	require.ErrorIs(t, unknownErr, ErrUnauthorized)
	require.Equal(t, err.Error(), unknownErr.Error(),
		"Unknown user and wrong password must be indistinguishable")
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	svc, _ := setupTestService(t)

	registerTestUser(t, svc, "bob", "building")

	_, err := svc.Register(context.Background(), api.UserRequest{
		Username: "bob",
		Email:    "other@example.com",
		Password: "secret",
	})
	require.ErrorIs(t, err, ErrConstraint)
}

func TestService_TokenLifecycle(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	user, err := svc.ValidateToken(ctx, auth.Token)
	require.NoError(t, err)
	require.Equal(t, "bob", user.Username)

	require.NoError(t, svc.Logout(ctx, auth.Token))

	_, err = svc.ValidateToken(ctx, auth.Token)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Logging out twice is fine
	require.NoError(t, svc.Logout(ctx, auth.Token))
}

func TestService_ValidateToken_Missing(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.ValidateToken(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_CreatePackage(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	req := testPackageRequest("vim", "9.1.0")
	req.Dependencies = []api.DependencyRequest{{Name: "libc6", Version: ">=2.34"}}
	req.Tags = []string{"editor"}

	pkg, err := svc.CreatePackage(ctx, req, auth.User.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pkg.ID)
	require.NotEmpty(t, pkg.Checksum)
	require.Equal(t, "bob", pkg.Author.Username)
	require.Len(t, pkg.Dependencies, 1)
	require.Equal(t, models.DependencyRuntime, pkg.Dependencies[0].DependencyType,
		"Dependency type defaults to runtime")
	require.Len(t, pkg.Tags, 1)
	require.NotEmpty(t, pkg.Tags[0].Color, "Tags carry their default color")
}

func TestService_CreatePackage_InvalidVersion(t *testing.T) {
	svc, _ := setupTestService(t)

	auth := registerTestUser(t, svc, "bob", "building")

	_, err := svc.CreatePackage(context.Background(),
		testPackageRequest("vim", "not-a-version"), auth.User.ID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestService_CreatePackage_Duplicate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	_, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), auth.User.ID)
	require.NoError(t, err)

	_, err = svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), auth.User.ID)
	require.ErrorIs(t, err, ErrConstraint)
}

func TestService_GetPackageByName_LatestVersion(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	// 1.10.0 is newest under semver ordering despite sorting last
	// lexically
	for _, version := range []string{"1.2.0", "1.10.0", "1.0.0"} {
		_, err := svc.CreatePackage(ctx, testPackageRequest("vim", version), auth.User.ID)
		require.NoError(t, err)
	}

	latest, err := svc.GetPackageByName(ctx, "vim", "")
	require.NoError(t, err)
	require.Equal(t, "1.10.0", latest.Version)

	pinned, err := svc.GetPackageByName(ctx, "vim", "1.2.0")
	require.NoError(t, err)
	require.Equal(t, "1.2.0", pinned.Version)

	_, err = svc.GetPackageByName(ctx, "missing", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdatePackage_RecomputesChecksum(t *testing.T) {
	svc, st := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")
	pkg, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), auth.User.ID)
	require.NoError(t, err)

	acting := testUserModel(t, st, auth.User.ID)
	updated, err := svc.UpdatePackage(ctx, pkg.ID, api.PackageRequest{Size: 4096}, acting)
	require.NoError(t, err)
	require.Equal(t, int64(4096), updated.Size)
	require.NotEqual(t, pkg.Checksum, updated.Checksum,
		"A content change must move the checksum")
}

func TestService_UpdatePackage_ReplacesDependenciesAndTags(t *testing.T) {
	svc, st := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	req := testPackageRequest("vim", "9.1.0")
	req.Dependencies = []api.DependencyRequest{{Name: "libc6", Version: ">=2.34"}}
	req.Tags = []string{"editor"}
	pkg, err := svc.CreatePackage(ctx, req, auth.User.ID)
	require.NoError(t, err)

	acting := testUserModel(t, st, auth.User.ID)

	// Omitting both leaves them untouched
	updated, err := svc.UpdatePackage(ctx, pkg.ID, api.PackageRequest{Description: "updated"}, acting)
	require.NoError(t, err)
	require.Len(t, updated.Dependencies, 1)
	require.Len(t, updated.Tags, 1)

	// Supplying them replaces the whole set
	updated, err = svc.UpdatePackage(ctx, pkg.ID, api.PackageRequest{
		Dependencies: []api.DependencyRequest{
			{Name: "ncurses", Version: ">=6.0"},
			{Name: "make", Version: "*", DependencyType: models.DependencyBuild},
		},
		Tags: []string{"terminal"},
	}, acting)
	require.NoError(t, err)
	require.Len(t, updated.Dependencies, 2)
	require.Len(t, updated.Tags, 1)
	require.Equal(t, "terminal", updated.Tags[0].Name)
}

func TestService_UpdatePackage_AfterDelete(t *testing.T) {
	svc, st := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")
	pkg, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), auth.User.ID)
	require.NoError(t, err)

	acting := testUserModel(t, st, auth.User.ID)
	require.NoError(t, svc.DeletePackage(ctx, pkg.ID, acting))

	_, err = svc.UpdatePackage(ctx, pkg.ID, api.PackageRequest{
		Description:  "updated",
		Dependencies: []api.DependencyRequest{{Name: "libc6", Version: ">=2.34"}},
		Tags:         []string{"editor"},
	}, acting)
	require.ErrorIs(t, err, ErrNotFound)

	// The update must not bring the package back
	_, err = svc.GetPackage(ctx, pkg.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdatePackage_AuthorOnly(t *testing.T) {
	svc, st := setupTestService(t)
	ctx := context.Background()

	owner := registerTestUser(t, svc, "bob", "building")
	other := registerTestUser(t, svc, "eve", "listening")

	pkg, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), owner.User.ID)
	require.NoError(t, err)

	intruder := testUserModel(t, st, other.User.ID)
	_, err = svc.UpdatePackage(ctx, pkg.ID, api.PackageRequest{Size: 1}, intruder)
	require.ErrorIs(t, err, ErrForbidden)

	admin := makeAdmin(t, st, other.User.ID)
	_, err = svc.UpdatePackage(ctx, pkg.ID, api.PackageRequest{Size: 1}, admin)
	require.NoError(t, err, "Admins may update any package")
}

func TestService_DeletePackage_AuthorOnly(t *testing.T) {
	svc, st := setupTestService(t)
	ctx := context.Background()

	owner := registerTestUser(t, svc, "bob", "building")
	other := registerTestUser(t, svc, "eve", "listening")

	pkg, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), owner.User.ID)
	require.NoError(t, err)

	intruder := testUserModel(t, st, other.User.ID)
	err = svc.DeletePackage(ctx, pkg.ID, intruder)
	require.ErrorIs(t, err, ErrForbidden)

	acting := testUserModel(t, st, owner.User.ID)
	require.NoError(t, svc.DeletePackage(ctx, pkg.ID, acting))

	_, err = svc.GetPackage(ctx, pkg.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_SearchPackages(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	req := testPackageRequest("vim", "9.1.0")
	req.Description = "Vi IMproved text editor"
	_, err := svc.CreatePackage(ctx, req, auth.User.ID)
	require.NoError(t, err)

	results, err := svc.SearchPackages(ctx, "IMproved")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = svc.SearchPackages(ctx, "improved")
	require.NoError(t, err)
	require.Empty(t, results, "Search is case sensitive")
}

func TestService_ListPackagesByUser(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	bob := registerTestUser(t, svc, "bob", "building")
	eve := registerTestUser(t, svc, "eve", "listening")

	_, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), bob.User.ID)
	require.NoError(t, err)
	_, err = svc.CreatePackage(ctx, testPackageRequest("curl", "8.5.0"), eve.User.ID)
	require.NoError(t, err)

	pkgs, err := svc.ListPackagesByUser(ctx, bob.User.ID)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "vim", pkgs[0].Name)

	_, err = svc.ListPackagesByUser(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateUser_RehashesPassword(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")

	_, err := svc.UpdateUser(ctx, auth.User.ID, api.UserRequest{Password: "rebuilt"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "bob", "building")
	require.ErrorIs(t, err, ErrUnauthorized, "The old password must stop working")

	_, err = svc.Authenticate(ctx, "bob", "rebuilt")
	require.NoError(t, err)
}

func TestService_DeleteUser_OrphansPackages(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	auth := registerTestUser(t, svc, "bob", "building")
	pkg, err := svc.CreatePackage(ctx, testPackageRequest("vim", "9.1.0"), auth.User.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, auth.User.ID))

	_, err = svc.GetUser(ctx, auth.User.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// The package stays visible after its author is gone
	found, err := svc.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, "vim", found.Name)
}

func TestService_Register_MissingPassword(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Register(context.Background(), api.UserRequest{
		Username: "bob",
		Email:    "bob@example.com",
	})
	require.ErrorIs(t, err, ErrValidation)
}
