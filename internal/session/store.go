// Package session owns the bearer token for the active session. The token is
// the only process-wide mutable state; it is injected into the transport layer
// rather than read from globals.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store holds a single bearer token. Implementations must make Set/Clear
// durable if they promise persistence across restarts.
type Store interface {
	// Token returns the current token, or false when none is stored.
	Token() (string, bool)
	// SetToken replaces any existing token. A zero expiry means unknown.
	SetToken(token string, expiresAt time.Time) error
	// Clear removes the token. Clearing an empty store is not an error.
	Clear() error
}

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// FileStore persists the token as a JSON file under the user config dir,
// surviving process restarts.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at $XDG_CONFIG_HOME/docforge (or
// ~/.config/docforge).
func NewFileStore() *FileStore {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return &FileStore{dir: filepath.Join(v, "docforge")}
	}
	home, _ := os.UserHomeDir()
	return &FileStore{dir: filepath.Join(home, ".config", "docforge")}
}

// Dir returns the config directory backing the store.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path() string { return filepath.Join(s.dir, "token.json") }

// Token reads the stored token. An expired token reads as absent; expiry is
// otherwise detected only by the server's 401.
func (s *FileStore) Token() (string, bool) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		return "", false
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", false
	}
	if tf.AccessToken == "" {
		return "", false
	}
	if !tf.ExpiresAt.IsZero() && time.Now().After(tf.ExpiresAt) {
		return "", false
	}
	return tf.AccessToken, true
}

// SetToken writes the token file with owner-only permissions.
func (s *FileStore) SetToken(token string, expiresAt time.Time) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: token, ExpiresAt: expiresAt}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), b, 0o600)
}

// Clear removes the token file.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemStore is an in-memory Store for tests and short-lived embedders.
type MemStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	set       bool
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", false
	}
	if !s.expiresAt.IsZero() && time.Now().After(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

func (s *MemStore) SetToken(token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.expiresAt, s.set = token, expiresAt, true
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.expiresAt, s.set = "", time.Time{}, false
	return nil
}
