// Package credentials persists the CLI's backend token between runs.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leadreach/leadreach/internal/model"
)

// FileName is the credentials file inside the config directory.
const FileName = "credentials.json"

// ErrNotLoggedIn is returned by Load when no credentials are stored.
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials is the stored token/user pair.
type Credentials struct {
	Token      string     `json:"token"`
	User       model.User `json:"user"`
	APIBaseURL string     `json:"api_base_url"`
	SavedAt    time.Time  `json:"saved_at"`
}

// Store reads and writes the credentials file.
type Store struct {
	path string
}

// NewStore returns a Store for dir/credentials.json.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the credentials file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored credentials. A file that cannot be parsed or
// holds no token counts as logged out.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil || creds.Token == "" {
		return nil, ErrNotLoggedIn
	}
	return &creds, nil
}

// Save writes the credentials with mode 0600, replacing any previous file.
func (s *Store) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file. Clearing twice is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
