// Package api defines the wire payloads shared by the registry server
// and the CLI client. Payloads are decoded exactly once at the HTTP
// boundary; everything behind it works with these typed records.
package api

import (
	"time"
)

// PackageRequest is the payload for creating or updating a package.
// The CLI also reads this shape from YAML publish manifests, so both
// codecs share the same keys.
type PackageRequest struct {
	Name         string              `json:"name"                  yaml:"name"`
	Version      string              `json:"version"               yaml:"version"`
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	Maintainer   string              `json:"maintainer"            yaml:"maintainer"`
	Architecture string              `json:"architecture"          yaml:"architecture"`
	Size         int64               `json:"size"                  yaml:"size"`
	Dependencies []DependencyRequest `json:"dependencies"          yaml:"dependencies"`
	Tags         []string            `json:"tags"                  yaml:"tags"`
}

// DependencyRequest declares a requirement on a named package. The
// target does not need to exist in the registry.
type DependencyRequest struct {
	Name           string `json:"name"            yaml:"name"`
	Version        string `json:"version"         yaml:"version"`
	DependencyType string `json:"dependency_type" yaml:"dependency_type"`
}

// PackageResponse is the externally visible projection of a package.
type PackageResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Version      string               `json:"version"`
	Description  string               `json:"description,omitempty"`
	Maintainer   string               `json:"maintainer"`
	Architecture string               `json:"architecture"`
	Size         int64                `json:"size"`
	Checksum     string               `json:"checksum"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Author       AuthorResponse       `json:"author"`
	Dependencies []DependencyResponse `json:"dependencies"`
	Tags         []TagResponse        `json:"tags"`
}

// AuthorResponse is the author reference carried by a package, not the
// full user record.
type AuthorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type DependencyResponse struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	DependencyType string `json:"dependency_type"`
}

type TagResponse struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UserRequest is the payload for registration and user administration.
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse omits the credential.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ErrorResponse carries a boundary-visible failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
