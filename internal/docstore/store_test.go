package docstore

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

const testDebounce = 40 * time.Millisecond

// settle waits long enough for a debounced write and the following
// index refresh to land.
func settle() {
	time.Sleep(testDebounce + SettleMargin + 60*time.Millisecond)
}

func testStore(t *testing.T, opts ...Option) (*Store, storage.Store) {
	t.Helper()
	backend := testutil.SQLiteStore(t)
	opts = append([]Option{WithDebounce(testDebounce)}, opts...)
	s := New(backend, testutil.Settings(t), testutil.Logger(), opts...)
	t.Cleanup(s.Close)
	return s, backend
}

func TestLoadEmptySynthesizesWelcome(t *testing.T) {
	s, backend := testStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	doc, ok := s.Active()
	if !ok {
		t.Fatal("no active document after load")
	}
	if doc.Content != models.WelcomeContent {
		t.Errorf("content = %q, want welcome content", doc.Content)
	}
	if !strings.HasPrefix(doc.Title, models.DefaultTitlePrefix) {
		t.Errorf("title = %q, want timestamp title", doc.Title)
	}

	// The welcome document is persisted immediately, not debounced.
	if _, err := backend.Get(doc.ID); err != nil {
		t.Errorf("welcome document not persisted: %v", err)
	}
}

func TestLoadRestoresLastDocument(t *testing.T) {
	backend := testutil.SQLiteStore(t)
	st := testutil.Settings(t)

	older := models.New("Older", "old", time.Now().Add(-time.Hour))
	newer := models.New("Newer", "new", time.Now())
	_ = backend.Put(older)
	_ = backend.Put(newer)
	_ = st.SetLastDocumentID(older.ID)

	s := New(backend, st, testutil.Logger(), WithDebounce(testDebounce))
	defer s.Close()
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	doc, _ := s.Active()
	if doc.ID != older.ID {
		t.Errorf("active = %s, want persisted last document %s", doc.ID, older.ID)
	}
}

func TestLoadFallsBackToMostRecent(t *testing.T) {
	backend := testutil.SQLiteStore(t)
	st := testutil.Settings(t)

	newer := models.New("Newer", "new", time.Now())
	_ = backend.Put(models.New("Older", "old", time.Now().Add(-time.Hour)))
	_ = backend.Put(newer)
	_ = st.SetLastDocumentID("doc-0-vanished")

	s := New(backend, st, testutil.Logger(), WithDebounce(testDebounce))
	defer s.Close()
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	doc, _ := s.Active()
	if doc.ID != newer.ID {
		t.Errorf("active = %s, want most recent %s", doc.ID, newer.ID)
	}
}

func TestDebounceCoalescesWrites(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	active, _ := s.Active()

	s.UpdateContent("Version 1")
	s.UpdateContent("Version 2")

	// Within the window the backend still holds the original content.
	got, err := backend.Get(active.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != models.WelcomeContent {
		t.Errorf("backend updated before debounce elapsed: %q", got.Content)
	}

	settle()

	got, err = backend.Get(active.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "Version 2" {
		t.Errorf("content = %q, want final burst state", got.Content)
	}
}

func TestAutoTitleOneShot(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	active, _ := s.Active()

	// The first non-blank content replaces the generated title once.
	s.UpdateContent("# Meeting Notes\nagenda")
	doc, _ := s.Active()
	if doc.Title != "Meeting Notes agenda" {
		t.Fatalf("title = %q, want derived title", doc.Title)
	}

	// Later edits leave the derived title alone.
	s.UpdateContent("# Different Heading\nmore")
	doc, _ = s.Active()
	if doc.Title != "Meeting Notes agenda" {
		t.Errorf("title = %q, want unchanged after first derivation", doc.Title)
	}

	settle()
	got, _ := backend.Get(active.ID)
	if got.Title != "Meeting Notes agenda" {
		t.Errorf("persisted title = %q", got.Title)
	}
}

func TestBlankContentKeepsGeneratedTitle(t *testing.T) {
	s, _ := testStore(t)
	_ = s.Load()

	s.UpdateContent("   \n\t")
	doc, _ := s.Active()
	if !strings.HasPrefix(doc.Title, models.DefaultTitlePrefix) {
		t.Errorf("title = %q, blank content must not claim the title", doc.Title)
	}
}

func TestUserTitleSurvivesContentEdits(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	active, _ := s.Active()

	// A user title starting with the generated prefix is still a user
	// title and must not be replaced by content derivation.
	if err := s.Rename(active.ID, "New Documentation"); err != nil {
		t.Fatal(err)
	}
	s.UpdateContent("# Meeting Notes\nagenda")

	doc, _ := s.Active()
	if doc.Title != "New Documentation" {
		t.Errorf("title = %q, want the renamed title kept", doc.Title)
	}

	settle()
	got, _ := backend.Get(active.ID)
	if got.Title != "New Documentation" {
		t.Errorf("persisted title = %q", got.Title)
	}
}

// countingStore wraps a backend and counts Put calls.
type countingStore struct {
	storage.Store
	mu   sync.Mutex
	puts int
}

func (c *countingStore) Put(doc models.Document) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.Store.Put(doc)
}

func (c *countingStore) putCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

func TestDebouncePersistsExactlyOneWrite(t *testing.T) {
	backend := &countingStore{Store: testutil.SQLiteStore(t)}
	s := New(backend, testutil.Settings(t), testutil.Logger(), WithDebounce(testDebounce))
	t.Cleanup(s.Close)
	_ = s.Load()
	active, _ := s.Active()

	base := backend.putCount()
	for _, v := range []string{"Version 1", "Version 2", "Version 3", "Version 4"} {
		s.UpdateContent(v)
	}
	settle()

	if n := backend.putCount() - base; n != 1 {
		t.Errorf("persisted writes = %d, want exactly 1 for the burst", n)
	}
	got, err := backend.Get(active.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "Version 4" {
		t.Errorf("content = %q, want final burst state", got.Content)
	}
}

func TestCreateNewSelectRoundTrip(t *testing.T) {
	s, _ := testStore(t)
	_ = s.Load()
	first, _ := s.Active()

	created := s.CreateNew()
	if created.Content != "" {
		t.Errorf("new document content = %q, want empty", created.Content)
	}
	s.UpdateContent("unsaved draft")

	// Switching away and back within the debounce window must not lose
	// the unsaved edit.
	if err := s.Select(first.ID); err != nil {
		t.Fatalf("Select first: %v", err)
	}
	if err := s.Select(created.ID); err != nil {
		t.Fatalf("Select created: %v", err)
	}
	doc, _ := s.Active()
	if doc.Content != "unsaved draft" {
		t.Errorf("content = %q, want pending in-memory state", doc.Content)
	}
}

func TestSelectMissing(t *testing.T) {
	s, _ := testStore(t)
	_ = s.Load()
	if err := s.Select("doc-0-missing"); err == nil {
		t.Error("expected error selecting a missing document")
	}
}

func TestSelectRecordsLastDocument(t *testing.T) {
	backend := testutil.SQLiteStore(t)
	st := testutil.Settings(t)
	other := models.New("Other", "body", time.Now())
	_ = backend.Put(other)

	s := New(backend, st, testutil.Logger(), WithDebounce(testDebounce))
	defer s.Close()
	_ = s.Load()

	if err := s.Select(other.ID); err != nil {
		t.Fatal(err)
	}
	if st.LastDocumentID() != other.ID {
		t.Errorf("last document id = %q, want %q", st.LastDocumentID(), other.ID)
	}
}

func TestDeleteLastDocumentCreatesFresh(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	first, _ := s.Active()

	if err := s.Delete(first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	doc, ok := s.Active()
	if !ok {
		t.Fatal("no active document after deleting the last one")
	}
	if doc.ID == first.ID {
		t.Error("replacement must have a fresh id")
	}

	all, _ := backend.GetAll()
	if len(all) != 1 {
		t.Errorf("backend has %d documents, want exactly 1 replacement", len(all))
	}
}

func TestDeleteActivePromotesSurvivor(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	first, _ := s.Active()

	survivor := models.New("Survivor", "still here", time.Now().Add(time.Minute))
	_ = backend.Put(survivor)
	s.Refresh()

	if err := s.Delete(first.ID); err != nil {
		t.Fatal(err)
	}
	doc, _ := s.Active()
	if doc.ID != survivor.ID {
		t.Errorf("active = %s, want promoted survivor %s", doc.ID, survivor.ID)
	}
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	active, _ := s.Active()

	other := models.New("Other", "bye", time.Now().Add(-time.Minute))
	_ = backend.Put(other)
	s.Refresh()

	if err := s.Delete(other.ID); err != nil {
		t.Fatal(err)
	}
	doc, _ := s.Active()
	if doc.ID != active.ID {
		t.Errorf("active changed: %s, want %s", doc.ID, active.ID)
	}
}

func TestRenamePersists(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	active, _ := s.Active()

	if err := s.Rename(active.ID, "Quarterly Plan"); err != nil {
		t.Fatal(err)
	}
	doc, _ := s.Active()
	if doc.Title != "Quarterly Plan" {
		t.Errorf("in-memory title = %q", doc.Title)
	}

	settle()
	got, _ := backend.Get(active.ID)
	if got.Title != "Quarterly Plan" {
		t.Errorf("persisted title = %q", got.Title)
	}
}

func TestRenameNonActive(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()

	other := models.New("Other", "body", time.Now().Add(-time.Minute))
	_ = backend.Put(other)

	if err := s.Rename(other.ID, "Renamed"); err != nil {
		t.Fatal(err)
	}
	settle()
	got, _ := backend.Get(other.ID)
	if got.Title != "Renamed" {
		t.Errorf("persisted title = %q", got.Title)
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()
	active, _ := s.Active()

	s.UpdateContent("about to quit")
	s.Flush()

	got, err := backend.Get(active.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "about to quit" {
		t.Errorf("content = %q, want flushed state without waiting", got.Content)
	}
}

func TestLoadFromFile(t *testing.T) {
	s, _ := testStore(t)
	_ = s.Load()

	doc := s.LoadFromFile("# Imported\nbody", "meeting-notes.md")
	if doc.Title != "meeting-notes" {
		t.Errorf("title = %q, want filename-derived title", doc.Title)
	}
	active, _ := s.Active()
	if active.ID != doc.ID {
		t.Error("imported document should become active")
	}
}

func TestOnChangeNotifications(t *testing.T) {
	var mu sync.Mutex
	var kinds []string
	record := func(kind, id string) {
		mu.Lock()
		kinds = append(kinds, kind)
		mu.Unlock()
	}

	s, _ := testStore(t, WithOnChange(record))
	_ = s.Load()

	doc := s.CreateNew()
	s.UpdateContent("hello world")
	settle()
	_ = s.Delete(doc.ID)

	mu.Lock()
	defer mu.Unlock()
	joined := strings.Join(kinds, ",")
	for _, want := range []string{"created", "updated", "deleted"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q notification in %v", want, kinds)
		}
	}
}

func TestDocumentsSnapshotOrdered(t *testing.T) {
	s, backend := testStore(t)
	_ = s.Load()

	_ = backend.Put(models.New("Older", "o", time.Now().Add(-time.Hour)))
	newest := models.New("Newest", "n", time.Now().Add(time.Hour))
	_ = backend.Put(newest)
	s.Refresh()

	docs := s.Documents()
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
	if docs[0].ID != newest.ID {
		t.Errorf("first = %s, want most recently updated", docs[0].ID)
	}
}
