// Package importer watches a drop directory and turns Markdown files
// placed there into new active documents. It is the headless analogue of
// drag-and-drop: drop a .md file into the directory while the editor is
// running and it opens as a fresh document.
package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/docstore"
)

// settleDelay gives editors and file managers time to finish writing
// before the file is read. Create and Write events for the same path
// within the window collapse into one import.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on dir and imports Markdown files
// dropped there until ctx is cancelled. Files already present at startup
// are not imported; only new arrivals are.
func Watch(ctx context.Context, store *docstore.Store, dir string, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("importer: watching", slog.String("dir", dir))

	// Per-path settle timers and last-imported checksums. Owned by this
	// goroutine; the timers deliver through settledCh.
	timers := make(map[string]*time.Timer)
	imported := make(map[string]string)
	settledCh := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			for _, t := range timers {
				t.Stop()
			}
			logger.Info("importer: stopped")
			return nil

		case path := <-settledCh:
			delete(timers, path)
			importFile(store, path, imported, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isMarkdown(ev.Name) {
				continue
			}
			path := ev.Name
			if t, ok := timers[path]; ok {
				t.Reset(settleDelay)
				continue
			}
			timers[path] = time.AfterFunc(settleDelay, func() {
				select {
				case settledCh <- path:
				case <-ctx.Done():
				}
			})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("importer: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// importFile reads a settled file and loads it as a new document,
// skipping content already imported under the same path.
func importFile(store *docstore.Store, path string, imported map[string]string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("importer: read failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	cs := checksum.Sum(data)
	if imported[path] == cs {
		return
	}
	imported[path] = cs

	filename := filepath.Base(path)
	doc := store.LoadFromFile(string(data), filename)
	logger.Info("importer: imported",
		slog.String("file", filename),
		slog.String("id", doc.ID))
}

func isMarkdown(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
