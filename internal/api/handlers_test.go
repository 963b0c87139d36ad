package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/mwantia/cpkgs/internal/config/server"
	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/db/models"
	"github.com/mwantia/cpkgs/pkg/db/store"
	"github.com/mwantia/cpkgs/pkg/log"
)

// setupTestServer spins up the full route table on a temporary store.
func setupTestServer(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Connect(ctx))
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })

	logger := log.NewLoggerService("test", config.LogServerConfig{Level: "fatal"})
	svc := registry.NewService(st, logger)

	server := httptest.NewServer(NewHandler(svc, logger))
	t.Cleanup(server.Close)

	return server, st
}

// request performs a JSON request and decodes the response into out
// when out is non-nil.
func request(t *testing.T, server *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func registerUser(t *testing.T, server *httptest.Server, username string) api.AuthResponse {
	t.Helper()

	var auth api.AuthResponse
	status := request(t, server, http.MethodPost, "/api/auth/register", "", api.UserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
	}, &auth)
	require.Equal(t, http.StatusOK, status)
	return auth
}

func registerAdmin(t *testing.T, server *httptest.Server, st *store.SQLiteStore, username string) api.AuthResponse {
	t.Helper()

	auth := registerUser(t, server, username)
	user, err := st.GetUser(context.Background(), auth.User.ID)
	require.NoError(t, err)
	user.Role = models.RoleAdmin
	require.NoError(t, st.UpdateUser(context.Background(), user))
	return auth
}

func createPackage(t *testing.T, server *httptest.Server, token, name, version string) api.PackageResponse {
	t.Helper()

	var pkg api.PackageResponse
	status := request(t, server, http.MethodPost, "/api/packages", token, api.PackageRequest{
		Name:         name,
		Version:      version,
		Description:  "A test package",
		Maintainer:   "tester",
		Architecture: "amd64",
		Size:         1024,
	}, &pkg)
	require.Equal(t, http.StatusCreated, status)
	return pkg
}

func TestHandler_Health(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Registry Service is running!", string(body))
}

func TestHandler_Login(t *testing.T) {
	server, _ := setupTestServer(t)
	registerUser(t, server, "bob")

	var auth api.AuthResponse
	status := request(t, server, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "bob", Password: "secret"}, &auth)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, auth.Token)

	status = request(t, server, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "bob", Password: "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestHandler_Logout(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")

	status := request(t, server, http.MethodPost, "/api/auth/logout", auth.Token, nil, nil)
	require.Equal(t, http.StatusOK, status)

	// The token no longer grants access
	status = request(t, server, http.MethodPost, "/api/packages", auth.Token,
		api.PackageRequest{Name: "vim", Version: "9.1.0"}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestHandler_CreatePackage_RequiresToken(t *testing.T) {
	server, _ := setupTestServer(t)

	status := request(t, server, http.MethodPost, "/api/packages", "",
		api.PackageRequest{Name: "vim", Version: "9.1.0"}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestHandler_CreatePackage(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")

	pkg := createPackage(t, server, auth.Token, "vim", "9.1.0")
	require.NotEmpty(t, pkg.ID)
	require.Equal(t, "bob", pkg.Author.Username)

	// The same release again conflicts
	status := request(t, server, http.MethodPost, "/api/packages", auth.Token, api.PackageRequest{
		Name:         "vim",
		Version:      "9.1.0",
		Maintainer:   "tester",
		Architecture: "amd64",
		Size:         1024,
	}, nil)
	require.Equal(t, http.StatusConflict, status)
}

func TestHandler_CreatePackage_MalformedBody(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/packages",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+auth.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_GetPackage(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")
	pkg := createPackage(t, server, auth.Token, "vim", "9.1.0")

	var found api.PackageResponse
	status := request(t, server, http.MethodGet, "/api/packages/"+pkg.ID, "", nil, &found)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, pkg.ID, found.ID)

	status = request(t, server, http.MethodGet, "/api/packages/missing", "", nil, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHandler_GetPackage_ByNameFallback(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")
	createPackage(t, server, auth.Token, "vim", "1.2.0")
	createPackage(t, server, auth.Token, "vim", "1.10.0")

	// A name resolves to the latest release
	var found api.PackageResponse
	status := request(t, server, http.MethodGet, "/api/packages/vim", "", nil, &found)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "1.10.0", found.Version)

	// A pinned version resolves through the two-segment route
	status = request(t, server, http.MethodGet, "/api/packages/vim/1.2.0", "", nil, &found)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "1.2.0", found.Version)
}

func TestHandler_SearchPackages(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")
	createPackage(t, server, auth.Token, "vim", "9.1.0")
	createPackage(t, server, auth.Token, "curl", "8.5.0")

	var results []api.PackageResponse
	status := request(t, server, http.MethodGet, "/api/packages/search/vim", "", nil, &results)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, results, 1)
	require.Equal(t, "vim", results[0].Name)
}

func TestHandler_ListPackages_QueryParams(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")
	for i := 0; i < 3; i++ {
		createPackage(t, server, auth.Token, fmt.Sprintf("pkg-%d", i), "1.0.0")
	}

	var results []api.PackageResponse
	status := request(t, server, http.MethodGet, "/api/packages?limit=2", "", nil, &results)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, results, 2)

	status = request(t, server, http.MethodGet, "/api/packages?limit=2&offset=2", "", nil, &results)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, results, 1)
}

func TestHandler_UpdatePackage_Authorization(t *testing.T) {
	server, _ := setupTestServer(t)
	owner := registerUser(t, server, "bob")
	other := registerUser(t, server, "eve")
	pkg := createPackage(t, server, owner.Token, "vim", "9.1.0")

	update := api.PackageRequest{Description: "updated"}

	status := request(t, server, http.MethodPut, "/api/packages/"+pkg.ID, other.Token, update, nil)
	require.Equal(t, http.StatusForbidden, status)

	var updated api.PackageResponse
	status = request(t, server, http.MethodPut, "/api/packages/"+pkg.ID, owner.Token, update, &updated)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "updated", updated.Description)
}

func TestHandler_DeletePackage(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")
	pkg := createPackage(t, server, auth.Token, "vim", "9.1.0")

	status := request(t, server, http.MethodDelete, "/api/packages/"+pkg.ID, auth.Token, nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	status = request(t, server, http.MethodGet, "/api/packages/"+pkg.ID, "", nil, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHandler_ListTags(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")

	status := request(t, server, http.MethodPost, "/api/packages", auth.Token, api.PackageRequest{
		Name:         "vim",
		Version:      "9.1.0",
		Maintainer:   "tester",
		Architecture: "amd64",
		Size:         1024,
		Tags:         []string{"editor", "terminal"},
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// Tag listing is public
	var tags []api.TagResponse
	status = request(t, server, http.MethodGet, "/api/tags", "", nil, &tags)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, tags, 2)
	require.Equal(t, "editor", tags[0].Name)
}

func TestHandler_Users_AdminOnly(t *testing.T) {
	server, st := setupTestServer(t)
	user := registerUser(t, server, "bob")
	admin := registerAdmin(t, server, st, "root")

	status := request(t, server, http.MethodGet, "/api/users", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status = request(t, server, http.MethodGet, "/api/users", user.Token, nil, nil)
	require.Equal(t, http.StatusForbidden, status)

	var users []api.UserResponse
	status = request(t, server, http.MethodGet, "/api/users", admin.Token, nil, &users)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, users, 2)
}

func TestHandler_CreateUser(t *testing.T) {
	server, st := setupTestServer(t)
	admin := registerAdmin(t, server, st, "root")

	var user api.UserResponse
	status := request(t, server, http.MethodPost, "/api/users", admin.Token, api.UserRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "secret",
	}, &user)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, models.RoleUser, user.Role)
}

func TestHandler_ListUserPackages(t *testing.T) {
	server, _ := setupTestServer(t)
	bob := registerUser(t, server, "bob")
	eve := registerUser(t, server, "eve")
	createPackage(t, server, bob.Token, "vim", "9.1.0")
	createPackage(t, server, eve.Token, "curl", "8.5.0")

	// Any authenticated user may inspect a user's packages
	var pkgs []api.PackageResponse
	status := request(t, server, http.MethodGet,
		"/api/users/"+bob.User.ID+"/packages", eve.Token, nil, &pkgs)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pkgs, 1)
	require.Equal(t, "vim", pkgs[0].Name)
}

func TestHandler_DownloadPackage_MissingArchive(t *testing.T) {
	server, _ := setupTestServer(t)
	auth := registerUser(t, server, "bob")
	pkg := createPackage(t, server, auth.Token, "vim", "9.1.0")

	status := request(t, server, http.MethodGet,
		"/api/packages/"+pkg.ID+"/download", auth.Token, nil, nil)
	require.Equal(t, http.StatusNotFound, status,
		"A metadata-only package has no archive to serve")

	status = request(t, server, http.MethodGet,
		"/api/packages/"+pkg.ID+"/download", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}
