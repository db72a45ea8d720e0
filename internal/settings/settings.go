// Package settings persists low-frequency editor preferences as a plain
// string key-value file. Every write is synchronous and atomic; absent
// or unrecognized values fall back to documented defaults, never error.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// View modes.
const (
	ViewSource   = "source"
	ViewRendered = "rendered"
	ViewBoth     = "both"
)

// Storage keys.
const (
	keyTheme      = "theme"
	keyViewMode   = "view-mode"
	keyScrollLock = "scroll-lock"
	keyLastDoc    = "last-document-id"
)

// Settings is a file-backed string key-value store with typed accessors.
type Settings struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// Open loads settings from path. A missing or malformed file yields an
// empty store; defaults apply until the first write.
func Open(path string) (*Settings, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("settings: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("settings: mkdir: %w", err)
	}

	s := &Settings{path: abs, values: make(map[string]string)}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("settings: read: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// Malformed file: fall back to defaults.
		s.values = make(map[string]string)
	}
	return s, nil
}

// Theme returns the stored theme, defaulting to dark.
func (s *Settings) Theme() string {
	switch v := s.get(keyTheme); v {
	case ThemeLight, ThemeDark:
		return v
	}
	return ThemeDark
}

// SetTheme stores the theme.
func (s *Settings) SetTheme(theme string) error {
	return s.set(keyTheme, theme)
}

// ViewMode returns the stored view mode, defaulting to both panes.
func (s *Settings) ViewMode() string {
	switch v := s.get(keyViewMode); v {
	case ViewSource, ViewRendered, ViewBoth:
		return v
	}
	return ViewBoth
}

// SetViewMode stores the view mode.
func (s *Settings) SetViewMode(mode string) error {
	return s.set(keyViewMode, mode)
}

// ScrollLock returns whether scroll sync is enabled, defaulting to true.
// Only an explicit "false" disables it.
func (s *Settings) ScrollLock() bool {
	return s.get(keyScrollLock) != "false"
}

// SetScrollLock stores the scroll-lock flag.
func (s *Settings) SetScrollLock(locked bool) error {
	v := "true"
	if !locked {
		v = "false"
	}
	return s.set(keyScrollLock, v)
}

// LastDocumentID returns the id of the last active document, or "".
func (s *Settings) LastDocumentID() string {
	return s.get(keyLastDoc)
}

// SetLastDocumentID stores the last active document id.
func (s *Settings) SetLastDocumentID(id string) error {
	return s.set(keyLastDoc, id)
}

func (s *Settings) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// set stores a value and rewrites the file atomically. Settings writes
// are infrequent, so each one is flushed immediately.
func (s *Settings) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ansuz-settings-*")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("settings: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("settings: rename: %w", err)
	}
	success = true
	return nil
}
