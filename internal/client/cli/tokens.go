package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

// TokenStore keeps the token pair in a JSON file readable only by the owner.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the stored pair. A missing file yields an empty pair.
func (s *TokenStore) Load() (client.Tokens, error) {
	var t client.Tokens
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return t, fmt.Errorf("reading token file: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return client.Tokens{}, fmt.Errorf("parsing token file %s: %w", s.path, err)
	}
	return t, nil
}

// Save writes t atomically. An empty pair removes the file.
func (s *TokenStore) Save(t client.Tokens) error {
	if t == (client.Tokens{}) {
		return s.Clear()
	}

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the token file if it exists.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
