package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskport/taskport/log"
	"github.com/taskport/taskport/models"
)

// ErrSessionNotFound is returned when a staged import session is missing
// or its keys have expired. The caller must restart from init.
var ErrSessionNotFound = errors.New("import not found or expired")

// SessionStore is the external key-value store holding staged session
// state. Values are whole JSON blobs; writes replace, last writer wins.
type SessionStore interface {
	// GetJSON loads the value under key into v. Returns false when the key
	// is absent or expired.
	GetJSON(key string, v any) (bool, error)

	// SetJSON stores v under key with the given TTL
	SetJSON(key string, v any, ttl time.Duration) error
}

// Orchestrator drives staged imports: init splits the batch into parent
// and child groups persisted under a session id, then the caller pumps
// chunk calls until each group's cursor reaches its total.
//
// Chunk calls for one session must be serialized by the caller. The store
// performs whole-value read-modify-write with no locking, so overlapping
// calls can lose updates.
type Orchestrator struct {
	Store     SessionStore
	Svc       TodoService
	TTL       time.Duration
	ChunkSize int
}

// InitResult reports the partitioning of a newly created session
type InitResult struct {
	ImportID string `json:"importId"`
	Total    int    `json:"total"`
	Parents  int    `json:"parents"`
	Children int    `json:"children"`
}

// ChunkResult reports one chunk call's outcome
type ChunkResult struct {
	NextCursor int  `json:"nextCursor"`
	Done       bool `json:"done"`
	Imported   int  `json:"imported"`
	Skipped    int  `json:"skipped"`
}

// session key parts
const (
	partParents  = "parents"
	partChildren = "children"
	partExisting = "existing"
	partIDMap    = "idmap"
	partStatus   = "status"
)

func sessionKey(userID, importID, part string) string {
	return "import:" + userID + ":" + importID + ":" + part
}

// newImportID builds an opaque session token: timestamp plus random suffix
func newImportID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

// Init partitions normalized records into parents (no parentOriginalId)
// and children, and persists the five session keys. When seedExisting is
// set, the duplicate pool is pre-populated from the upstream list so the
// session also catches duplicates of pre-existing records; by default the
// pool starts empty and only within-session duplicates are caught.
func (o *Orchestrator) Init(ctx context.Context, userID string, records []models.ImportRecord, seedExisting bool) (*InitResult, error) {
	var parents, children []models.ImportRecord
	for _, rec := range records {
		if rec.ParentOriginalID != "" {
			children = append(children, rec)
		} else {
			parents = append(parents, rec)
		}
	}

	existing := []models.ExistingTodo{}
	if seedExisting {
		pool, err := o.Svc.ListTodos(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to seed existing pool: %w", err)
		}
		existing = pool
	}

	importID := newImportID()
	status := models.ImportStatus{
		Stage:    models.StageReady,
		Parents:  models.GroupProgress{Total: len(parents)},
		Children: models.GroupProgress{Total: len(children)},
	}

	writes := map[string]any{
		partParents:  parents,
		partChildren: children,
		partExisting: existing,
		partIDMap:    map[string]string{},
		partStatus:   status,
	}
	for part, value := range writes {
		if err := o.Store.SetJSON(sessionKey(userID, importID, part), value, o.TTL); err != nil {
			return nil, fmt.Errorf("failed to persist session %s: %w", part, err)
		}
	}

	log.Info().
		Str("importId", importID).
		Int("parents", len(parents)).
		Int("children", len(children)).
		Msg("staged import session created")

	return &InitResult{
		ImportID: importID,
		Total:    len(records),
		Parents:  len(parents),
		Children: len(children),
	}, nil
}

// ProcessParents imports one slice of the parent group. Duplicates are
// matched unscoped against the session pool; a duplicate with an original
// id is still mapped so its children can attach to the existing record.
func (o *Orchestrator) ProcessParents(ctx context.Context, userID, importID string, cursor, limit int) (*ChunkResult, error) {
	return o.processChunk(ctx, userID, importID, cursor, limit, false)
}

// ProcessChildren imports one slice of the child group. Matching is scoped
// to the resolved parent; children whose parent was never mapped are
// skipped and never sent upstream.
func (o *Orchestrator) ProcessChildren(ctx context.Context, userID, importID string, cursor, limit int) (*ChunkResult, error) {
	return o.processChunk(ctx, userID, importID, cursor, limit, true)
}

func (o *Orchestrator) processChunk(ctx context.Context, userID, importID string, cursor, limit int, children bool) (*ChunkResult, error) {
	part := partParents
	if children {
		part = partChildren
	}

	var group []models.ImportRecord
	ok, err := o.Store.GetJSON(sessionKey(userID, importID, part), &group)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	var status models.ImportStatus
	ok, err = o.Store.GetJSON(sessionKey(userID, importID, partStatus), &status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	existing := []models.ExistingTodo{}
	if _, err := o.Store.GetJSON(sessionKey(userID, importID, partExisting), &existing); err != nil {
		return nil, err
	}
	idmap := map[string]string{}
	if _, err := o.Store.GetJSON(sessionKey(userID, importID, partIDMap), &idmap); err != nil {
		return nil, err
	}

	if cursor < 0 {
		cursor = 0
	}
	if limit <= 0 {
		limit = o.ChunkSize
	}
	end := cursor + limit
	if end > len(group) {
		end = len(group)
	}
	if cursor > len(group) {
		cursor = len(group)
		end = cursor
	}

	imported := 0
	skipped := 0

	for _, rec := range group[cursor:end] {
		parentID := ""
		if children {
			resolved, mapped := idmap[rec.ParentOriginalID]
			if !mapped {
				// parent never imported (or its import failed); no deferral
				skipped++
				continue
			}
			parentID = resolved
		}

		opts := MatchOptions{}
		if children {
			opts = MatchOptions{Scoped: true, ScopeParentID: parentID}
		}

		if dup := FindDuplicate(rec, existing, opts); dup != nil {
			skipped++
			if rec.OriginalID != "" {
				idmap[rec.OriginalID] = dup.ID
			}
			continue
		}

		created, err := o.Svc.CreateTodo(ctx, userID, rec, parentID)
		if err != nil {
			log.Warn().Err(err).Str("title", rec.Title).Msg("upstream create failed, record skipped")
			skipped++
			continue
		}

		existing = append(existing, *created)
		imported++
		if rec.OriginalID != "" {
			idmap[rec.OriginalID] = created.ID
		}
	}

	processed := end - cursor
	progress := &status.Parents
	status.Stage = models.StageParents
	if children {
		progress = &status.Children
		status.Stage = models.StageChildren
	}
	progress.Processed += processed
	if progress.Processed > progress.Total {
		progress.Processed = progress.Total
	}
	progress.Imported += imported
	progress.Skipped += skipped

	writes := map[string]any{
		partExisting: existing,
		partIDMap:    idmap,
		partStatus:   status,
	}
	for p, value := range writes {
		if err := o.Store.SetJSON(sessionKey(userID, importID, p), value, o.TTL); err != nil {
			return nil, fmt.Errorf("failed to persist session %s: %w", p, err)
		}
	}

	return &ChunkResult{
		NextCursor: end,
		Done:       end >= len(group),
		Imported:   imported,
		Skipped:    skipped,
	}, nil
}

// Progress is the read-only status projection for polling
func (o *Orchestrator) Progress(userID, importID string) (*models.ImportStatus, error) {
	var status models.ImportStatus
	ok, err := o.Store.GetJSON(sessionKey(userID, importID, partStatus), &status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &status, nil
}
