package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/dnscache"

	"github.com/mwantia/cpkgs/pkg/api"
)

// APIError carries a non-success response, body included, so commands
// can report the failure without crashing.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("registry returned status %d", e.Status)
	}
	return fmt.Sprintf("registry returned status %d: %s", e.Status, e.Body)
}

// Client is the typed HTTP client for the registry API. The session
// token, when present, is attached to every request.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a client for the session's registry.
func New(session *Session) *Client {
	return &Client{
		base:  session.RegistryURL,
		token: session.AuthToken,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: cachedTransport(),
		},
	}
}

var (
	transportOnce   sync.Once
	sharedTransport *http.Transport
)

// cachedTransport returns the process-wide transport resolving hosts
// through an in-process DNS cache that refreshes every five minutes.
// Shared so constructing many clients spawns a single refresher.
func cachedTransport() *http.Transport {
	transportOnce.Do(func() {
		sharedTransport = newCachedTransport()
	})
	return sharedTransport
}

func newCachedTransport() *http.Transport {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, fmt.Errorf("failed to dial any resolved IP")
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Auth

func (c *Client) Login(ctx context.Context, username, password string) (api.AuthResponse, error) {
	return call[api.AuthResponse](c, ctx, http.MethodPost, "/api/auth/login",
		api.LoginRequest{Username: username, Password: password})
}

func (c *Client) Register(ctx context.Context, req api.UserRequest) (api.AuthResponse, error) {
	return call[api.AuthResponse](c, ctx, http.MethodPost, "/api/auth/register", req)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := call[struct{}](c, ctx, http.MethodPost, "/api/auth/logout", nil)
	return err
}

// Packages

// ListOptions mirrors the listing query parameters; zero values are
// omitted.
type ListOptions struct {
	Search     string
	Tag        string
	Maintainer string
	Limit      int
	Offset     int
}

func (c *Client) ListPackages(ctx context.Context, opts ListOptions) ([]api.PackageResponse, error) {
	params := url.Values{}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.Tag != "" {
		params.Set("tag", opts.Tag)
	}
	if opts.Maintainer != "" {
		params.Set("maintainer", opts.Maintainer)
	}
	if opts.Limit != 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset != 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/packages"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return call[[]api.PackageResponse](c, ctx, http.MethodGet, path, nil)
}

func (c *Client) SearchPackages(ctx context.Context, query string) ([]api.PackageResponse, error) {
	return call[[]api.PackageResponse](c, ctx, http.MethodGet,
		"/api/packages/search/"+url.PathEscape(query), nil)
}

// GetPackage resolves by id or, failing that, by name at its latest
// version.
func (c *Client) GetPackage(ctx context.Context, idOrName string) (api.PackageResponse, error) {
	return call[api.PackageResponse](c, ctx, http.MethodGet,
		"/api/packages/"+url.PathEscape(idOrName), nil)
}

func (c *Client) GetPackageVersion(ctx context.Context, name, version string) (api.PackageResponse, error) {
	return call[api.PackageResponse](c, ctx, http.MethodGet,
		"/api/packages/"+url.PathEscape(name)+"/"+url.PathEscape(version), nil)
}

func (c *Client) CreatePackage(ctx context.Context, req api.PackageRequest) (api.PackageResponse, error) {
	return call[api.PackageResponse](c, ctx, http.MethodPost, "/api/packages", req)
}

func (c *Client) UpdatePackage(ctx context.Context, id string, req api.PackageRequest) (api.PackageResponse, error) {
	return call[api.PackageResponse](c, ctx, http.MethodPut, "/api/packages/"+url.PathEscape(id), req)
}

func (c *Client) DeletePackage(ctx context.Context, id string) error {
	_, err := call[struct{}](c, ctx, http.MethodDelete, "/api/packages/"+url.PathEscape(id), nil)
	return err
}

// Tags

func (c *Client) ListTags(ctx context.Context) ([]api.TagResponse, error) {
	return call[[]api.TagResponse](c, ctx, http.MethodGet, "/api/tags", nil)
}

// Users

func (c *Client) ListUsers(ctx context.Context) ([]api.UserResponse, error) {
	return call[[]api.UserResponse](c, ctx, http.MethodGet, "/api/users", nil)
}

func (c *Client) CreateUser(ctx context.Context, req api.UserRequest) (api.UserResponse, error) {
	return call[api.UserResponse](c, ctx, http.MethodPost, "/api/users", req)
}

// DownloadURL is the absolute archive location for a package id.
func (c *Client) DownloadURL(id string) string {
	return c.base + "/api/packages/" + url.PathEscape(id) + "/download"
}

// Token returns the bearer token the client attaches to requests.
func (c *Client) Token() string {
	return c.token
}

func call[T any](c *Client, ctx context.Context, method, path string, body any) (T, error) {
	var result T

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return result, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return result, fmt.Errorf("failed to reach registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return result, &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if resp.StatusCode == http.StatusNoContent {
		return result, nil
	}
	if _, ok := any(result).(struct{}); ok {
		return result, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, nil
}
