// Package session owns the stored credential and the launch-time gate that
// decides between the authenticated flow and the login flow. The credential
// is a single opaque token in a file; this layer never inspects it.
package session

import (
	"os"
	"path/filepath"
	"strings"
)

const tokenFileName = "token"

// Store persists the access token under the client state directory. Reads
// and writes are whole-file and effectively atomic for a single value; the
// store has no concurrent writers (login and logout are user actions).
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on the first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, tokenFileName)
}

// Token returns the stored token, or "" when none is stored. A missing file
// is not an error; read failures are.
func (s *Store) Token() (string, error) {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes the token with owner-only permissions.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path(), []byte(token+"\n"), 0o600)
}

// Clear removes the stored token. Clearing an already-empty store is a
// no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
