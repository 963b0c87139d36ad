// Package client implements the CLI side of the registry: the
// persisted session, the typed API client and the archive downloader.
package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrAuthRequired is reported locally when a command needs a token and
// the session holds none. The service is never contacted in that case.
var ErrAuthRequired = errors.New("authentication required, run 'cpkgs auth login' first")

// Session holds the registry address and bearer token shared by every
// CLI invocation, persisted between process runs.
type Session struct {
	RegistryURL string `toml:"registry_url"`
	AuthToken   string `toml:"auth_token,omitempty"`
	CacheDir    string `toml:"cache_dir"`
	InstallDir  string `toml:"install_dir"`

	// path the session was loaded from, kept out of the file itself
	path string `toml:"-"`
}

// DefaultSession returns the session used before any login.
func DefaultSession() *Session {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Session{
		RegistryURL: "http://localhost:3000",
		CacheDir:    filepath.Join(home, ".cpkgs", "cache"),
		InstallDir:  filepath.Join(home, ".cpkgs", "packages"),
		path:        filepath.Join(home, ".cpkgs", "config.toml"),
	}
}

// LoadSession reads the persisted session, falling back to defaults
// when no session file exists yet.
func LoadSession() (*Session, error) {
	session := DefaultSession()
	return loadSessionFrom(session.path)
}

func loadSessionFrom(path string) (*Session, error) {
	session := DefaultSession()
	session.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return session, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := toml.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	return session, nil
}

// Save persists the session and makes sure the cache and install
// directories exist.
func (s *Session) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	for _, dir := range []string{s.CacheDir, s.InstallDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SetToken stores the bearer token obtained by login or register.
func (s *Session) SetToken(token string) {
	s.AuthToken = token
}

// ClearToken drops the bearer token on logout.
func (s *Session) ClearToken() {
	s.AuthToken = ""
}

// RequireToken reports the local authentication-required condition.
func (s *Session) RequireToken() error {
	if s.AuthToken == "" {
		return ErrAuthRequired
	}
	return nil
}
