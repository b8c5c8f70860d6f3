package importer

import (
	"context"
	"sync/atomic"

	"github.com/taskport/taskport/log"
	"github.com/taskport/taskport/models"
	"golang.org/x/sync/errgroup"
)

// TodoService is the upstream collaborator the import pipeline drives.
// Create failures are reported per record and never abort a batch.
type TodoService interface {
	// ListTodos fetches the user's full existing-record pool
	ListTodos(ctx context.Context, userID string) ([]models.ExistingTodo, error)

	// CreateTodo creates one todo upstream. parentID may be empty for
	// top-level records. Returns the created record on success.
	CreateTodo(ctx context.Context, userID string, rec models.ImportRecord, parentID string) (*models.ExistingTodo, error)
}

// BatchResult is the aggregate outcome of a single-shot import
type BatchResult struct {
	Imported int
	Skipped  int
	Total    int
}

// RunBatch is the single-shot import path: deduplicate the whole record
// list against itself and the user's existing pool, then fan creation out
// to the upstream service with at most concurrency in-flight requests.
//
// Per-record upstream failures count as skipped. Completion order across
// workers is non-deterministic; callers must not assume import order.
func RunBatch(ctx context.Context, svc TodoService, userID string, records []models.ImportRecord, concurrency int) (*BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	existing, err := svc.ListTodos(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Within-batch dedup before any network call; first occurrence wins
	seen := make(map[string]struct{}, len(records))
	unique := make([]models.ImportRecord, 0, len(records))
	var imported, skipped atomic.Int64

	for _, rec := range records {
		key := DedupKey(rec)
		if _, dup := seen[key]; dup {
			skipped.Add(1)
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rec)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, rec := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			if dup := FindDuplicate(rec, existing, MatchOptions{WidenBuckets: true}); dup != nil {
				skipped.Add(1)
				return nil
			}

			if _, err := svc.CreateTodo(gctx, userID, rec, ""); err != nil {
				log.Warn().Err(err).Str("title", rec.Title).Msg("upstream create failed, record skipped")
				skipped.Add(1)
				return nil
			}

			imported.Add(1)
			return nil
		})
	}

	// Wait only surfaces context cancellation; per-record failures are counts
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchResult{
		Imported: int(imported.Load()),
		Skipped:  int(skipped.Load()),
		Total:    len(records),
	}, nil
}
