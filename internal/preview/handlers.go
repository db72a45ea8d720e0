// Package preview implements the browser live-preview HTTP API using chi.
//
// The terminal editor stays the writing surface; this server renders the
// active document to sanitized HTML for any browser pointed at it, with
// SSE-driven live reload as edits stream in.
package preview

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/export"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/render"
)

// Handler holds preview route handlers.
type Handler struct {
	store    *docstore.Store
	renderer *render.HTML
}

// NewHandler creates a Handler over the document store.
func NewHandler(store *docstore.Store, renderer *render.HTML) *Handler {
	return &Handler{store: store, renderer: renderer}
}

// DocumentListItem is a lightweight item in the document index response.
type DocumentListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

// DocumentListResponse wraps the document index.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
}

// Index handles GET /: the HTML shell that fetches rendered output and
// subscribes to SSE updates.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}

// Preview handles GET /preview: the active document rendered to
// sanitized HTML. The content checksum doubles as an ETag so the SSE
// driven re-fetches are cheap when nothing changed.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.store.Active()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no active document"))
		return
	}

	etag := fmt.Sprintf("%q", checksum.Sum([]byte(doc.Content)))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	html, err := h.renderer.Render(doc.Content)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("render failed"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// ListDocuments handles GET /documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	active, _ := h.store.Active()
	docs := h.store.Documents()

	items := make([]DocumentListItem, len(docs))
	for i, d := range docs {
		items[i] = DocumentListItem{
			ID:        d.ID,
			Title:     d.Title,
			UpdatedAt: d.UpdatedAt,
			Active:    d.ID == active.ID,
		}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items})
}

// GetDocument handles GET /documents/{id}: the raw document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.findDocument(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SelectDocument handles POST /documents/{id}/select: switches the
// active document from the browser side.
func (h *Handler) SelectDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Select(id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /export: downloads the active document as a .md
// artifact with a freshly timestamped filename.
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	doc, ok := h.store.Active()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no active document"))
		return
	}

	filename := export.Filename(doc.Title, time.Now())
	w.Header().Set("Content-Type", export.MIMEType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.Content))
}

// findDocument resolves an id against the active document first, so
// unsaved edits inside the debounce window are visible to the API.
func (h *Handler) findDocument(id string) (models.Document, error) {
	if doc, ok := h.store.Active(); ok && doc.ID == id {
		return doc, nil
	}
	for _, d := range h.store.Documents() {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Document{}, apperr.ErrNotFound
}
