package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at);
`

// SQLite implements Store backed by a SQLite database file.
type SQLite struct {
	conn *sql.DB
}

// Verify backends satisfy Store at compile time.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*JSONFile)(nil)
	_ Store = (*Fallback)(nil)
)

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// GetAll returns every document, most recently updated first. Ties are
// broken by insertion order (rowid), which matches write order.
func (s *SQLite) GetAll() ([]models.Document, error) {
	rows, err := s.conn.Query(`
		SELECT id, title, content, updated_at
		FROM documents
		ORDER BY updated_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: get all: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Get returns a single document by id.
func (s *SQLite) Get(id string) (*models.Document, error) {
	row := s.conn.QueryRow(`
		SELECT id, title, content, updated_at
		FROM documents
		WHERE id = ?
	`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: get %s: %w", id, err)
	}
	return &doc, nil
}

// Put inserts or replaces a document.
func (s *SQLite) Put(doc models.Document) error {
	_, err := s.conn.Exec(`
		INSERT INTO documents (id, title, content, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			content    = excluded.content,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Content, doc.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document by id.
func (s *SQLite) Delete(id string) error {
	if _, err := s.conn.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (models.Document, error) {
	var doc models.Document
	var ms int64
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &ms); err != nil {
		return models.Document{}, err
	}
	doc.UpdatedAt = millisToTime(ms)
	return doc, nil
}
