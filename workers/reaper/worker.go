package reaper

import (
	"sync"
	"time"

	"github.com/taskport/taskport/db"
	"github.com/taskport/taskport/log"
)

// Config holds reaper worker settings
type Config struct {
	// Interval between purge sweeps
	Interval time.Duration
}

// Worker periodically deletes expired session keys from the store.
// Reads already treat expired keys as absent; this reclaims the rows.
type Worker struct {
	cfg Config

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a new reaper worker
func NewWorker(cfg Config) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}

	return &Worker{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// Start begins the purge loop
func (w *Worker) Start() {
	log.Info().Dur("interval", w.cfg.Interval).Msg("starting session reaper")

	w.wg.Add(1)
	go w.loop()
}

// Stop stops the reaper and waits for the loop to exit
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	log.Info().Msg("session reaper stopped")
}

func (w *Worker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.purge()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) purge() {
	n, err := db.PurgeExpired()
	if err != nil {
		log.Error().Err(err).Msg("failed to purge expired keys")
		return
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("purged expired session keys")
	}
}
