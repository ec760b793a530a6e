package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists a session to disk so it survives restarts. Identity and
// token live in one document written via temp-file + rename, so they are
// stored and cleared as a pair; split state cannot be observed.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the session atomically. Guest sessions are not persisted:
// saving one clears whatever was stored instead.
func (st *Store) Save(s *Session) error {
	if s == nil || s.IsGuest {
		return st.Clear()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("session write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session close: %w", err)
	}

	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session rename: %w", err)
	}
	return nil
}

// Load reads the persisted session. A missing file means "no session".
// Corrupt or half-formed state (identity without token or vice versa) is
// cleared and reported as no session rather than surfaced.
func (st *Store) Load() (*Session, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session read: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		_ = st.Clear()
		return nil, nil
	}

	if s.Token == "" || s.User.ID == 0 {
		_ = st.Clear()
		return nil, nil
	}

	s.IsGuest = false
	return &s, nil
}

// Clear removes the persisted session. Clearing an absent file succeeds.
func (st *Store) Clear() error {
	err := os.Remove(st.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
