// Package session remembers the catalog picked by the user between
// invocations.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/oshifier/oshify/internal/atomicfile"
)

var userConfigDir = os.UserConfigDir

// Session is the state persisted in the user's configuration directory.
type Session struct {
	Catalog  string    `toml:"catalog"`
	Selected time.Time `toml:"selected"`
}

// Path returns the location of the session file.
func Path() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "oshify", "session.toml"), nil
}

// Load returns the saved session, or an empty one if none was saved.
func Load() (*Session, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: %s: %w", path, err)
	}
	return &s, nil
}

// Remember records catalog as the selected catalog and saves the session.
func (s *Session) Remember(catalog string, now time.Time) error {
	abs, err := filepath.Abs(catalog)
	if err != nil {
		return err
	}
	s.Catalog = abs
	s.Selected = now.UTC().Truncate(time.Second)
	return s.Save()
}

// Save writes the session file.
func (s *Session) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0o644)
}

// Clear forgets the saved session.
func Clear() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
