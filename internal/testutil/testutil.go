// Package testutil provides shared test helpers for setting up stores
// and settings on temporary files.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/storage"
)

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLiteStore creates a SQLite store on a temporary database that is
// automatically cleaned up.
func SQLiteStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// JSONStore creates a JSON file store on a temporary file.
func JSONStore(t *testing.T) *storage.JSONFile {
	t.Helper()
	s, err := storage.OpenJSONFile(filepath.Join(t.TempDir(), "documents.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Settings creates a settings store on a temporary file.
func Settings(t *testing.T) *settings.Settings {
	t.Helper()
	s, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}
