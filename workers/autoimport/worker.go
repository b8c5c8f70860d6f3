package autoimport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/taskport/taskport/auth"
	"github.com/taskport/taskport/importer"
	"github.com/taskport/taskport/log"
)

// Config holds auto-import worker settings
type Config struct {
	// WatchDir is the drop directory to watch for import files
	WatchDir string

	// Concurrency bounds upstream fan-out per file
	Concurrency int

	// DebounceDelay waits for writes to settle before importing
	DebounceDelay time.Duration

	// MaxFileSize rejects oversized drop files
	MaxFileSize int64
}

// Worker watches a drop directory and imports any JSON or CSV file that
// lands in it. Processed files are renamed with a .imported or .failed
// suffix so they are not picked up again.
type Worker struct {
	cfg Config
	svc importer.TodoService

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	pending map[string]*time.Timer
}

// NewWorker creates a new auto-import worker
func NewWorker(cfg Config, svc importer.TodoService) *Worker {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 2 * time.Second
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}

	return &Worker{
		cfg:      cfg,
		svc:      svc,
		stopChan: make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}
}

// Start begins watching the drop directory
func (w *Worker) Start() error {
	if err := os.MkdirAll(w.cfg.WatchDir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.cfg.WatchDir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	log.Info().Str("dir", w.cfg.WatchDir).Msg("starting auto-import watcher")

	// Pick up files that were dropped while we were down
	w.scanExisting()

	w.wg.Add(1)
	go w.loop()

	return nil
}

// Stop stops the watcher and waits for in-flight imports
func (w *Worker) Stop() {
	close(w.stopChan)
	if w.watcher != nil {
		w.watcher.Close()
	}

	// Mark stopped under the lock so no fired timer can register a new
	// import after the Wait below begins
	w.mu.Lock()
	w.stopped = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	log.Info().Msg("auto-import watcher stopped")
}

func (w *Worker) scanExisting() {
	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		log.Warn().Err(err).Msg("failed to scan drop directory")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.WatchDir, entry.Name())
		if isImportFile(path) {
			w.schedule(path)
		}
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if isImportFile(event.Name) {
				w.schedule(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// schedule (re)arms the per-file debounce timer. Large files arrive as a
// burst of write events; only the last one triggers the import.
func (w *Worker) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(w.cfg.DebounceDelay, func() {
		// The Add must happen under the lock, before Stop can observe an
		// empty pending set and start waiting
		w.mu.Lock()
		delete(w.pending, path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.importFile(path)
	})
}

func (w *Worker) importFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		// File may have been removed between event and debounce fire
		return
	}

	filename := filepath.Base(path)
	if err := importer.ValidateFile(filename, info.Size(), w.cfg.MaxFileSize); err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("rejecting drop file")
		w.markFailed(path)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("failed to read drop file")
		w.markFailed(path)
		return
	}

	records, err := importer.ParseFile(filename, data)
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("failed to parse drop file")
		w.markFailed(path)
		return
	}

	result, err := importer.RunBatch(context.Background(), w.svc, auth.LocalUser, records, w.cfg.Concurrency)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("auto-import failed")
		w.markFailed(path)
		return
	}

	log.Info().
		Str("file", filename).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("total", result.Total).
		Msg("auto-import completed")

	w.markDone(path)
}

func (w *Worker) markDone(path string) {
	if err := os.Rename(path, path+".imported"); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to rename imported file")
	}
}

func (w *Worker) markFailed(path string) {
	if err := os.Rename(path, path+".failed"); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to rename failed file")
	}
}

func isImportFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".csv":
		return true
	}
	return false
}
