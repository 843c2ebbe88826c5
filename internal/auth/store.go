// Package auth holds the client's active access credential.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrEmptyToken is returned when asked to install a blank credential.
var ErrEmptyToken = errors.New("auth: empty token")

// MemoryStore keeps the active token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: strings.TrimSpace(token)}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Replace installs token as the active credential.
func (s *MemoryStore) Replace(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// FileStore persists the active token to a file so that separate CLI
// invocations share one session.
type FileStore struct {
	path string
	mem  *MemoryStore
}

// OpenFileStore reads the token at path. A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("auth: token file path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("auth: read token file: %w", err)
	}
	return &FileStore{path: path, mem: NewMemoryStore(string(raw))}, nil
}

func (s *FileStore) Token() string {
	return s.mem.Token()
}

// Replace writes token to disk before making it active; a failed write leaves
// the previous token in place.
func (s *FileStore) Replace(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("auth: create token dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("auth: write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("auth: install token file: %w", err)
	}
	return s.mem.Replace(token)
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}
