package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by Load when no token has been stored yet.
var ErrNoToken = errors.New("no stored token")

// Store persists the last obtained token.
type Store interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// FileStore keeps the token as JSON in a single file.
// There is no locking: concurrent writers race and the last one wins.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored token. It returns ErrNoToken if the file is absent.
func (s *FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return &token, nil
}

// Save overwrites the token file with mode 0600, creating the parent
// directory with mode 0700 when needed.
func (s *FileStore) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("nil token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Remove deletes the token file. A missing file is not an error.
func (s *FileStore) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
