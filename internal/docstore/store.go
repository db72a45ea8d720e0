// Package docstore owns the in-memory representation of the active
// document and the set of known documents, and mediates debounced
// write-back to persistent storage.
//
// Mutations update memory synchronously (so the UI reflects them
// immediately) and reach storage through an explicit debounced pending
// write. A crash within the debounce window loses at most the most
// recent edit burst; this is an accepted trade-off, not a defect.
package docstore

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/storage"
)

// Default timing. The settle delay is deliberately longer than the
// debounce window so an index refresh observes the debounced write.
const (
	DefaultDebounce = 500 * time.Millisecond
	SettleMargin    = 100 * time.Millisecond
)

// ChangeFunc is called after a store mutation lands. kind is one of
// "created", "updated", "selected", "deleted".
type ChangeFunc func(kind, id string)

// Store is the single source of truth for which document is active and
// what documents exist. All mutations of the active document go through
// its own operations (single writer).
type Store struct {
	backend  storage.Store
	settings *settings.Settings
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	active   *models.Document
	docs     []models.Document
	pending  map[string]*pendingWrite
	onChange ChangeFunc
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce overrides the debounce window (tests use short windows).
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithOnChange registers a change notification callback.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Store) { s.onChange = fn }
}

// New creates a document store over the given backend and settings.
func New(backend storage.Store, st *settings.Settings, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		settings: st,
		logger:   logger,
		debounce: DefaultDebounce,
		pending:  make(map[string]*pendingWrite),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the session at startup: the persisted last active
// document if it still exists, otherwise the most recently updated
// document, otherwise a fresh welcome document persisted immediately.
// Always finishes by loading the full document index.
func (s *Store) Load() error {
	var doc *models.Document

	if lastID := s.settings.LastDocumentID(); lastID != "" {
		d, err := s.backend.Get(lastID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("docstore: load last document failed",
				slog.String("id", lastID),
				slog.String("error", err.Error()))
		}
		doc = d
	}

	if doc == nil {
		docs, err := s.backend.GetAll()
		if err != nil {
			s.logger.Warn("docstore: load index failed", slog.String("error", err.Error()))
		}
		if len(docs) > 0 {
			doc = &docs[0]
		}
	}

	if doc == nil {
		// Entirely empty store: synthesize and persist the welcome
		// document right away, there is no prior content being typed.
		fresh := models.New(models.TimestampTitle(time.Now()), models.WelcomeContent, time.Now())
		if err := s.backend.Put(fresh); err != nil {
			s.logger.Warn("docstore: persist welcome document failed", slog.String("error", err.Error()))
		}
		if err := s.settings.SetLastDocumentID(fresh.ID); err != nil {
			s.logger.Warn("docstore: record last document failed", slog.String("error", err.Error()))
		}
		doc = &fresh
		s.notify("created", fresh.ID)
	}

	s.mu.Lock()
	s.active = doc
	s.mu.Unlock()

	s.refreshIndex()
	return nil
}

// CreateNew synthesizes an empty document with a timestamp-derived title
// and makes it active immediately. Persistence takes the debounced path;
// the index is refreshed after the settle delay to observe the write.
func (s *Store) CreateNew() models.Document {
	now := time.Now()
	doc := models.New(models.TimestampTitle(now), "", now)

	s.mu.Lock()
	s.active = &doc
	s.scheduleSave(doc)
	s.mu.Unlock()

	s.scheduleRefresh()
	s.notify("created", doc.ID)
	return doc
}

// UpdateContent mutates the active document's content in memory and
// schedules a debounced persistent write. Rapid successive calls
// coalesce into a single write carrying the latest content.
func (s *Store) UpdateContent(content string) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return
	}
	// Auto-title only while the document still carries its exact
	// generated title, so a user-chosen title is never clobbered.
	if models.IsGeneratedTitle(s.active.Title) && strings.TrimSpace(content) != "" {
		if t := models.TitleFromContent(content); t != "" {
			s.active.Title = t
		}
	}
	s.active.Content = content
	s.active.UpdatedAt = time.Now()
	s.scheduleSave(*s.active)
	s.mu.Unlock()
}

// UpdateTitle mutates the active document's title with the same
// debounced-write discipline.
func (s *Store) UpdateTitle(title string) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return
	}
	s.active.Title = title
	s.active.UpdatedAt = time.Now()
	s.scheduleSave(*s.active)
	s.mu.Unlock()
}

// Rename changes the title of the document with the given id, which may
// or may not be the active one.
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.active.Title = title
		s.active.UpdatedAt = time.Now()
		s.scheduleSave(*s.active)
		s.mu.Unlock()
		return nil
	}
	// A pending write may hold newer state than the backend.
	if p, ok := s.pending[id]; ok {
		p.doc.Title = title
		p.doc.UpdatedAt = time.Now()
		s.scheduleSave(p.doc)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	doc, err := s.backend.Get(id)
	if err != nil {
		return fmt.Errorf("docstore: rename %s: %w", id, err)
	}
	doc.Title = title
	doc.UpdatedAt = time.Now()

	s.mu.Lock()
	s.scheduleSave(*doc)
	s.mu.Unlock()
	return nil
}

// LoadFromFile creates a new active document from imported file content,
// deriving the title from the filename.
func (s *Store) LoadFromFile(content, filename string) models.Document {
	now := time.Now()
	doc := models.New(models.TitleFromFilename(filename), content, now)

	s.mu.Lock()
	s.active = &doc
	s.scheduleSave(doc)
	s.mu.Unlock()

	s.scheduleRefresh()
	s.notify("created", doc.ID)
	return doc
}

// Select loads the document with the given id into the active slot and
// records it as last active immediately (cheap, infrequent write that
// must survive an immediate reload).
func (s *Store) Select(id string) error {
	// Prefer unsaved in-memory state over the backend copy.
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		doc := p.doc
		s.active = &doc
		s.mu.Unlock()
		s.recordLastDocument(id)
		s.notify("selected", id)
		return nil
	}
	s.mu.Unlock()

	doc, err := s.backend.Get(id)
	if err != nil {
		return fmt.Errorf("docstore: select %s: %w", id, err)
	}

	s.mu.Lock()
	s.active = doc
	s.mu.Unlock()

	s.recordLastDocument(id)
	s.notify("selected", id)
	return nil
}

// Delete removes a document. If it was the active one, the most recently
// updated survivor is promoted; if none remain a fresh document is
// synthesized and persisted, so the set is never observably empty.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
	wasActive := s.active != nil && s.active.ID == id
	s.mu.Unlock()

	if err := s.backend.Delete(id); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", id, err)
	}
	s.refreshIndex()
	s.notify("deleted", id)

	if !wasActive {
		return nil
	}

	s.mu.Lock()
	var successor *models.Document
	if len(s.docs) > 0 {
		doc := s.docs[0]
		successor = &doc
	}
	s.mu.Unlock()

	if successor == nil {
		now := time.Now()
		fresh := models.New(models.TimestampTitle(now), "", now)
		if err := s.backend.Put(fresh); err != nil {
			s.logger.Warn("docstore: persist replacement document failed",
				slog.String("error", err.Error()))
		}
		successor = &fresh
		s.refreshIndex()
		s.notify("created", fresh.ID)
	}

	s.mu.Lock()
	s.active = successor
	s.mu.Unlock()

	s.recordLastDocument(successor.ID)
	return nil
}

// Active returns a copy of the active document.
func (s *Store) Active() (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Document{}, false
	}
	return *s.active, true
}

// Documents returns the current index snapshot, most recent first.
func (s *Store) Documents() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Refresh rebuilds the document index from the backend immediately.
func (s *Store) Refresh() {
	s.refreshIndex()
}

// Close flushes pending writes. The backend is owned by the caller.
func (s *Store) Close() {
	s.Flush()
}

// refreshIndex rebuilds the index wholesale from the backing store.
// Rebuilt, not incrementally patched: correctness over micro-optimization.
func (s *Store) refreshIndex() {
	docs, err := s.backend.GetAll()
	if err != nil {
		s.logger.Warn("docstore: refresh index failed", slog.String("error", err.Error()))
		return
	}
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
}

// scheduleRefresh rebuilds the index after the settle delay, long enough
// for the debounced write to have landed. The narrow staleness window in
// between is an accepted race.
func (s *Store) scheduleRefresh() {
	time.AfterFunc(s.debounce+SettleMargin, s.refreshIndex)
}

func (s *Store) recordLastDocument(id string) {
	if err := s.settings.SetLastDocumentID(id); err != nil {
		s.logger.Warn("docstore: record last document failed",
			slog.String("error", err.Error()))
	}
}

func (s *Store) notify(kind, id string) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(kind, id)
	}
}
