package storage

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Fallback wraps a primary and a secondary Store. Every operation is
// tried against the primary first; if the primary fails the operation is
// retried transparently against the secondary, with the same contract.
// Once an operation has degraded, all subsequent operations go straight
// to the secondary; the session does not flap between backends.
type Fallback struct {
	primary   Store
	secondary Store
	logger    *slog.Logger

	mu       sync.Mutex
	degraded bool
}

// Open constructs the process-wide document store: SQLite at sqlitePath
// as the primary backend with a JSON file at jsonPath as the fallback.
// If SQLite cannot be opened at all the store starts degraded. Only when
// both backends fail to open is an error returned.
func Open(sqlitePath, jsonPath string, logger *slog.Logger) (*Fallback, error) {
	secondary, jsonErr := OpenJSONFile(jsonPath)

	primary, err := OpenSQLite(sqlitePath)
	if err != nil {
		if jsonErr != nil {
			return nil, errors.Join(err, jsonErr)
		}
		logger.Warn("storage: primary backend unavailable, using fallback",
			slog.String("sqlite_path", sqlitePath),
			slog.String("error", err.Error()))
		return &Fallback{secondary: secondary, logger: logger, degraded: true}, nil
	}
	if jsonErr != nil {
		// Primary works; run without a fallback rather than failing.
		logger.Warn("storage: fallback backend unavailable",
			slog.String("json_path", jsonPath),
			slog.String("error", jsonErr.Error()))
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}, nil
}

// GetAll returns every document ordered by UpdatedAt descending.
func (f *Fallback) GetAll() ([]models.Document, error) {
	var out []models.Document
	err := f.do("get all", func(s Store) error {
		var err error
		out, err = s.GetAll()
		return err
	})
	return out, err
}

// Get returns a single document by id.
func (f *Fallback) Get(id string) (*models.Document, error) {
	var out *models.Document
	err := f.do("get", func(s Store) error {
		var err error
		out, err = s.Get(id)
		return err
	})
	return out, err
}

// Put inserts or replaces a document.
func (f *Fallback) Put(doc models.Document) error {
	return f.do("put", func(s Store) error { return s.Put(doc) })
}

// Delete removes a document by id.
func (f *Fallback) Delete(id string) error {
	return f.do("delete", func(s Store) error { return s.Delete(id) })
}

// Close closes both backends.
func (f *Fallback) Close() error {
	var errs []error
	if f.primary != nil {
		errs = append(errs, f.primary.Close())
	}
	if f.secondary != nil {
		errs = append(errs, f.secondary.Close())
	}
	return errors.Join(errs...)
}

// Degraded reports whether operations are being served by the fallback
// backend.
func (f *Fallback) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

// do runs op against the current backend, degrading to the secondary on
// a primary failure. Not-found is a contract result, not a failure.
func (f *Fallback) do(name string, op func(Store) error) error {
	f.mu.Lock()
	degraded := f.degraded
	f.mu.Unlock()

	if !degraded && f.primary != nil {
		err := op(f.primary)
		if err == nil || errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if f.secondary == nil {
			return err
		}
		f.logger.Warn("storage: primary backend failed, degrading to fallback",
			slog.String("op", name),
			slog.String("error", err.Error()))
		f.mu.Lock()
		f.degraded = true
		f.mu.Unlock()
	}

	return op(f.secondary)
}
