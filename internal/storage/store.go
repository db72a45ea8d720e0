// Package storage defines the persistent document store abstraction and
// its backends: SQLite (primary) and a JSON file (fallback).
package storage

import (
	"time"

	"github.com/starford/ansuz/internal/models"
)

// Store is the interface for persistent document operations.
// Consumers should depend on this interface rather than a concrete
// backend to facilitate testing and transparent fallback.
type Store interface {
	// GetAll returns every document ordered by UpdatedAt descending.
	GetAll() ([]models.Document, error)
	// Get returns the document with the given id, or apperr.ErrNotFound.
	Get(id string) (*models.Document, error)
	// Put inserts or replaces a document keyed by its id.
	Put(doc models.Document) error
	// Delete removes the document with the given id. Deleting an absent
	// id is not an error.
	Delete(id string) error
	// Close releases backend resources.
	Close() error
}

// Timestamps are persisted at millisecond resolution in both backends.

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

