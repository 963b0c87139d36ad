package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwantia/cpkgs/pkg/api"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(&Session{RegistryURL: server.URL, AuthToken: "tok-1"})
}

func TestClient_AttachesBearerToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]api.PackageResponse{})
	})

	_, err := c.ListPackages(t.Context(), ListOptions{})
	require.NoError(t, err)
}

func TestClient_ListPackages_QueryParams(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/packages", r.URL.Path)
		require.Equal(t, "vim", r.URL.Query().Get("search"))
		require.Equal(t, "editor", r.URL.Query().Get("tag"))
		require.Equal(t, "25", r.URL.Query().Get("limit"))
		require.Equal(t, "5", r.URL.Query().Get("offset"))
		json.NewEncoder(w).Encode([]api.PackageResponse{{Name: "vim"}})
	})

	pkgs, err := c.ListPackages(t.Context(), ListOptions{
		Search: "vim",
		Tag:    "editor",
		Limit:  25,
		Offset: 5,
	})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "vim", pkgs[0].Name)
}

func TestClient_SearchPackages_EscapesQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/packages/search/hello%20world", r.URL.EscapedPath())
		json.NewEncoder(w).Encode([]api.PackageResponse{})
	})

	_, err := c.SearchPackages(t.Context(), "hello world")
	require.NoError(t, err)
}

func TestClient_Login(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var payload api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "bob", payload.Username)

		json.NewEncoder(w).Encode(api.AuthResponse{Token: "tok-2"})
	})

	auth, err := c.Login(t.Context(), "bob", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-2", auth.Token)
}

func TestClient_APIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	_, err := c.GetPackage(t.Context(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Contains(t, apiErr.Body, "not found")
}

func TestClient_DeletePackage_NoContent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeletePackage(t.Context(), "pkg-1"))
}

func TestClient_DownloadURL(t *testing.T) {
	c := New(&Session{RegistryURL: "http://registry.local"})

	require.Equal(t, "http://registry.local/api/packages/pkg-1/download",
		c.DownloadURL("pkg-1"))
}

func TestClient_ListTags(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode([]api.TagResponse{{Name: "editor", Color: "#3498db"}})
	})

	tags, err := c.ListTags(t.Context())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "editor", tags[0].Name)
}

func TestCachedTransport_Shared(t *testing.T) {
	a := New(&Session{RegistryURL: "http://registry.local"})
	b := New(&Session{RegistryURL: "http://registry.local"})

	// Every client rides the same transport so only one DNS refresher runs
	require.Same(t, a.http.Transport, b.http.Transport)
}
