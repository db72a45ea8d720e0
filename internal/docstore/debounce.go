package docstore

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// pendingWrite is an explicit debounce slot: the latest unsaved state of
// one document plus the timer that will flush it. Each new mutation of
// the same document cancels and reschedules the timer, so only the last
// state within a quiet window reaches storage.
type pendingWrite struct {
	doc   models.Document
	timer *time.Timer
}

// scheduleSave (re)schedules a debounced persistent write for doc.
// Caller holds s.mu.
func (s *Store) scheduleSave(doc models.Document) {
	if p, ok := s.pending[doc.ID]; ok {
		p.timer.Stop()
		p.doc = doc
		p.timer.Reset(s.debounce)
		return
	}
	p := &pendingWrite{doc: doc}
	id := doc.ID
	p.timer = time.AfterFunc(s.debounce, func() { s.flushPending(id) })
	s.pending[id] = p
}

// flushPending persists the pending state of one document, if still
// pending. Runs on the debounce timer goroutine.
func (s *Store) flushPending(id string) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	doc := p.doc
	isActive := s.active != nil && s.active.ID == id
	s.mu.Unlock()

	s.persist(doc, isActive)
}

// persist writes one document to the backend, records it as last active
// when appropriate, and rebuilds the index. Storage errors are logged,
// never fatal; the in-memory copy stays authoritative for the session.
func (s *Store) persist(doc models.Document, isActive bool) {
	if err := s.backend.Put(doc); err != nil {
		s.logger.Warn("docstore: save failed",
			slog.String("id", doc.ID),
			slog.String("error", err.Error()))
		return
	}
	if isActive {
		if err := s.settings.SetLastDocumentID(doc.ID); err != nil {
			s.logger.Warn("docstore: record last document failed",
				slog.String("error", err.Error()))
		}
	}
	s.refreshIndex()
	s.notify("updated", doc.ID)
}

// Flush forces every pending debounced write to storage immediately.
// Called on shutdown so quitting never loses the last edit burst.
func (s *Store) Flush() {
	type flush struct {
		doc      models.Document
		isActive bool
	}

	s.mu.Lock()
	flushes := make([]flush, 0, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		flushes = append(flushes, flush{
			doc:      p.doc,
			isActive: s.active != nil && s.active.ID == id,
		})
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, f := range flushes {
		s.persist(f.doc, f.isActive)
	}
}
