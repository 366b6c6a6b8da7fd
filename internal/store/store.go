// Package store persists the current interview session in a single slot
// file so a candidate can reload the client without losing their session.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/intervuhq/intervu/internal/models"
)

// ErrNoSession is returned by Load when no usable session is stored.
var ErrNoSession = errors.New("no stored session")

// Store reads and writes the persisted session slot.
type Store struct {
	path string
}

// New creates a Store backed by the given slot file path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the per-user session slot location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "intervu", "session.json"), nil
}

// Path returns the slot file path.
func (s *Store) Path() string {
	return s.path
}

// Save persists the session, replacing any previous slot contents.
func (s *Store) Save(session *models.Session) error {
	if !session.HasCredentials() {
		return errors.New("refusing to persist session without credentials")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// 0600: the slot holds the access token.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load returns the stored session. Malformed or credential-less slot
// contents are discarded: the slot is cleared and ErrNoSession returned,
// so a corrupt file never blocks a fresh access flow.
func (s *Store) Load() (*models.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		_ = s.Clear()
		return nil, ErrNoSession
	}
	if !session.HasCredentials() {
		_ = s.Clear()
		return nil, ErrNoSession
	}
	return &session, nil
}

// Clear removes the stored session. Clearing an empty slot is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
