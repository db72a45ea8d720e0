package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// JSONFile implements Store backed by a single JSON file holding the
// whole document set. It is the graceful-degradation path when SQLite
// cannot be opened: simpler, more limited, same external contract.
type JSONFile struct {
	path string

	mu   sync.Mutex
	docs map[string]docRecord
}

// docRecord is the on-disk shape of one document. Timestamps are Unix
// milliseconds so both backends agree on resolution.
type docRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt int64  `json:"updated_at"`
	seq       int    // insertion order, breaks timestamp ties
}

// OpenJSONFile opens (or creates) a JSON-file store at path. A missing
// file means an empty store; a malformed file is treated the same and
// will be overwritten on the next write.
func OpenJSONFile(path string) (*JSONFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}

	j := &JSONFile{path: abs, docs: make(map[string]docRecord)}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", abs, err)
	}

	var records []docRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// Corrupt file: start empty rather than refusing to open.
		return j, nil
	}
	for i, r := range records {
		r.seq = i
		j.docs[r.ID] = r
	}
	return j, nil
}

// GetAll returns every document ordered by UpdatedAt descending,
// insertion order breaking ties.
func (j *JSONFile) GetAll() ([]models.Document, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	records := make([]docRecord, 0, len(j.docs))
	for _, r := range j.docs {
		records = append(records, r)
	}
	sort.Slice(records, func(a, b int) bool {
		if records[a].UpdatedAt != records[b].UpdatedAt {
			return records[a].UpdatedAt > records[b].UpdatedAt
		}
		return records[a].seq > records[b].seq
	})

	out := make([]models.Document, len(records))
	for i, r := range records {
		out[i] = r.document()
	}
	return out, nil
}

// Get returns a single document by id.
func (j *JSONFile) Get(id string) (*models.Document, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	r, ok := j.docs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	doc := r.document()
	return &doc, nil
}

// Put inserts or replaces a document and rewrites the file.
func (j *JSONFile) Put(doc models.Document) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	seq := len(j.docs)
	if prev, ok := j.docs[doc.ID]; ok {
		seq = prev.seq
	}
	j.docs[doc.ID] = docRecord{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		UpdatedAt: doc.UpdatedAt.UnixMilli(),
		seq:       seq,
	}
	return j.flush()
}

// Delete removes a document and rewrites the file.
func (j *JSONFile) Delete(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.docs[id]; !ok {
		return nil
	}
	delete(j.docs, id)
	return j.flush()
}

// Close is a no-op; every write is already durable.
func (j *JSONFile) Close() error { return nil }

// flush atomically writes the whole set: tmp file, fsync, rename.
// Caller holds j.mu.
func (j *JSONFile) flush() error {
	records := make([]docRecord, 0, len(j.docs))
	for _, r := range j.docs {
		records = append(records, r)
	}
	sort.Slice(records, func(a, b int) bool { return records[a].seq < records[b].seq })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal: %w", err)
	}

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

func (r docRecord) document() models.Document {
	return models.Document{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		UpdatedAt: millisToTime(r.UpdatedAt),
	}
}
