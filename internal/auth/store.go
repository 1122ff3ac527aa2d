package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CredentialStore persists the ephemeral PKCE verifier and the session
// access token. The verifier is written at login start and consumed exactly
// once at token exchange; the token lives until logout or session-expiry
// detection. Load methods return "" when nothing is stored.
type CredentialStore interface {
	SaveVerifier(verifier string) error
	LoadVerifier() (string, error)
	DeleteVerifier() error

	SaveToken(token string) error
	LoadToken() (string, error)
	DeleteToken() error
}

const (
	configDirName    = "spotify-receipt"
	verifierFileName = "verifier"
	tokenFileName    = "token"
)

// FileStore keeps credentials in files under a config directory, one file
// per key, so a login attempt survives a process restart.
type FileStore struct {
	dir string
}

// DefaultFileStore returns a FileStore under the user config directory,
// e.g. ~/.config/spotify-receipt on Linux.
func DefaultFileStore() (*FileStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config dir: %w", err)
	}
	return &FileStore{dir: filepath.Join(configDir, configDirName)}, nil
}

// NewFileStore creates a FileStore rooted at a custom directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// SaveVerifier overwrites any previously stored verifier; only one login
// attempt may be in flight per client.
func (s *FileStore) SaveVerifier(verifier string) error { return s.write(verifierFileName, verifier) }

// LoadVerifier reads the stored verifier, or "" when none exists.
func (s *FileStore) LoadVerifier() (string, error) { return s.read(verifierFileName) }

// DeleteVerifier removes the stored verifier. Missing files are not errors.
func (s *FileStore) DeleteVerifier() error { return s.remove(verifierFileName) }

// SaveToken stores the session access token.
func (s *FileStore) SaveToken(token string) error { return s.write(tokenFileName, token) }

// LoadToken reads the stored access token, or "" when logged out.
func (s *FileStore) LoadToken() (string, error) { return s.read(tokenFileName) }

// DeleteToken removes the stored access token.
func (s *FileStore) DeleteToken() error { return s.remove(tokenFileName) }

func (s *FileStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) write(name, value string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(value), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// MemoryStore keeps credentials in memory. Used in tests and anywhere
// durability across restarts is not needed.
type MemoryStore struct {
	mu       sync.Mutex
	verifier string
	token    string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveVerifier(verifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = verifier
	return nil
}

func (s *MemoryStore) LoadVerifier() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifier, nil
}

func (s *MemoryStore) DeleteVerifier() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = ""
	return nil
}

func (s *MemoryStore) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) LoadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) DeleteToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Ensure both stores implement CredentialStore.
var (
	_ CredentialStore = (*FileStore)(nil)
	_ CredentialStore = (*MemoryStore)(nil)
)
