package api

import (
	"time"

	"github.com/taskport/taskport/config"
	"github.com/taskport/taskport/importer"
	"github.com/taskport/taskport/notifications"
)

// Deps holds the collaborators handlers need. Injected so tests can swap
// the upstream service and session store for fakes.
type Deps struct {
	Svc   importer.TodoService
	Store importer.SessionStore
	Notif *notifications.Service

	// InvalidateCache drops a user's cached todo list after a successful
	// single-shot import. Best-effort; errors are logged, never fatal.
	InvalidateCache func(userID string) error

	// KVCount counts live store keys under a prefix (stats endpoint)
	KVCount func(prefix string) (int64, error)
}

// Handlers holds references to server components
type Handlers struct {
	svc         importer.TodoService
	orch        *importer.Orchestrator
	notif       *notifications.Service
	invalidate  func(string) error
	kvCount     func(string) (int64, error)
	maxFileSize int64
	concurrency int
}

// NewHandlers creates a new Handlers instance wired from configuration
func NewHandlers(d Deps) *Handlers {
	cfg := config.Get()
	return &Handlers{
		svc: d.Svc,
		orch: &importer.Orchestrator{
			Store:     d.Store,
			Svc:       d.Svc,
			TTL:       time.Duration(cfg.ImportTTLSec) * time.Second,
			ChunkSize: cfg.ImportChunkSize,
		},
		notif:       d.Notif,
		invalidate:  d.InvalidateCache,
		kvCount:     d.KVCount,
		maxFileSize: cfg.ImportMaxFileSize,
		concurrency: cfg.ImportConcurrency,
	}
}
