// Package mirror persists the small slice of client state that survives
// restarts independently of the remote store: the user directory, the
// report template set, and the theme preference. Each key is one JSON
// file in the mirror directory.
//
// The mirror is best-effort by design. Load failures fall back to zero
// values and save failures are logged and swallowed - in-memory state
// stays authoritative for the session either way. The active session user
// is deliberately NOT part of the mirror; it lives only for the process
// lifetime.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/guardianhq/guardian/internal/state"
)

const (
	usersFile     = "users.json"
	templatesFile = "report_templates.json"
	themeFile     = "theme.json"
)

// Mirror reads and writes the durable local keys under a directory.
type Mirror struct {
	dir string
}

// Open ensures the mirror directory exists and returns a handle on it.
func Open(dir string) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror dir: %w", err)
	}
	return &Mirror{dir: dir}, nil
}

// LoadUsers returns the persisted user directory, or (nil, nil) when the
// key has never been written.
func (m *Mirror) LoadUsers() ([]state.User, error) {
	var users []state.User
	ok, err := m.load(usersFile, &users)
	if err != nil || !ok {
		return nil, err
	}
	return users, nil
}

// SaveUsers persists the user directory.
func (m *Mirror) SaveUsers(users []state.User) error {
	return m.save(usersFile, users)
}

// LoadTemplates returns the persisted report templates, or (nil, nil)
// when the key has never been written.
func (m *Mirror) LoadTemplates() ([]state.ReportTemplate, error) {
	var templates []state.ReportTemplate
	ok, err := m.load(templatesFile, &templates)
	if err != nil || !ok {
		return nil, err
	}
	return templates, nil
}

// SaveTemplates persists the report template set.
func (m *Mirror) SaveTemplates(templates []state.ReportTemplate) error {
	return m.save(templatesFile, templates)
}

// LoadTheme returns the persisted theme, or "" when never written.
func (m *Mirror) LoadTheme() (string, error) {
	var theme string
	ok, err := m.load(themeFile, &theme)
	if err != nil || !ok {
		return "", err
	}
	return theme, nil
}

// SaveTheme persists the theme preference.
func (m *Mirror) SaveTheme(theme string) error {
	return m.save(themeFile, theme)
}

func (m *Mirror) load(name string, out any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read mirror key %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode mirror key %s: %w", name, err)
	}
	return true, nil
}

// save writes atomically via a temp file rename so a crash mid-write
// never leaves a torn key behind.
func (m *Mirror) save(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mirror key %s: %w", name, err)
	}
	tmp := filepath.Join(m.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write mirror key %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dir, name)); err != nil {
		return fmt.Errorf("commit mirror key %s: %w", name, err)
	}
	return nil
}
