package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/taskport/taskport/models"
)

// fakeService is an in-memory TodoService for pipeline tests
type fakeService struct {
	mu      sync.Mutex
	pool    []models.ExistingTodo
	created []createdCall
	nextID  int

	listErr    error
	failTitles map[string]bool
}

type createdCall struct {
	rec      models.ImportRecord
	parentID string
}

func (f *fakeService) ListTodos(ctx context.Context, userID string) ([]models.ExistingTodo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.ExistingTodo, len(f.pool))
	copy(out, f.pool)
	return out, nil
}

func (f *fakeService) CreateTodo(ctx context.Context, userID string, rec models.ImportRecord, parentID string) (*models.ExistingTodo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[rec.Title] {
		return nil, errors.New("upstream rejected record")
	}
	f.nextID++
	todo := models.ExistingTodo{
		ID:             fmt.Sprintf("t-%d", f.nextID),
		Title:          rec.Title,
		DueDate:        rec.DueDate,
		Category:       rec.Category,
		ParentID:       parentID,
		ExternalID:     rec.ExternalID,
		ExternalSource: rec.ExternalSource,
	}
	f.created = append(f.created, createdCall{rec: rec, parentID: parentID})
	return &todo, nil
}

func (f *fakeService) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func TestRunBatchTitleVariants(t *testing.T) {
	svc := &fakeService{}
	records := []models.ImportRecord{
		{Title: "Buy milk"},
		{Title: "buy   milk!"},
	}

	result, err := RunBatch(context.Background(), svc, "u1", records, 4)
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Skipped != 1 || result.Total != 2 {
		t.Fatalf("got %+v, want imported=1 skipped=1 total=2", result)
	}
	if svc.createdCount() != 1 {
		t.Fatalf("expected 1 upstream create, got %d", svc.createdCount())
	}
}

func TestRunBatchDuplicateOriginalID(t *testing.T) {
	svc := &fakeService{}
	records := []models.ImportRecord{
		{Title: "First occurrence", OriginalID: "42"},
		{Title: "Second occurrence, different title", OriginalID: "42"},
	}

	result, err := RunBatch(context.Background(), svc, "u1", records, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("got %+v, want imported=1 skipped=1", result)
	}
	if svc.created[0].rec.Title != "First occurrence" {
		t.Errorf("first occurrence should win, created %q", svc.created[0].rec.Title)
	}
}

func TestRunBatchSkipsExistingPool(t *testing.T) {
	svc := &fakeService{
		pool: []models.ExistingTodo{{ID: "e1", Title: "Walk dog"}},
	}
	records := []models.ImportRecord{
		{Title: "walk DOG"},
		{Title: "New task"},
	}

	result, err := RunBatch(context.Background(), svc, "u1", records, 4)
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("got %+v, want imported=1 skipped=1", result)
	}
	if svc.createdCount() != 1 || svc.created[0].rec.Title != "New task" {
		t.Fatalf("unexpected creates: %+v", svc.created)
	}
}

func TestRunBatchCreateFailureCountsSkipped(t *testing.T) {
	svc := &fakeService{failTitles: map[string]bool{"Doomed": true}}
	records := []models.ImportRecord{
		{Title: "Doomed"},
		{Title: "Fine"},
	}

	result, err := RunBatch(context.Background(), svc, "u1", records, 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("per-record failure should count as skipped, got %+v", result)
	}
}

func TestRunBatchListError(t *testing.T) {
	svc := &fakeService{listErr: errors.New("upstream down")}
	_, err := RunBatch(context.Background(), svc, "u1", []models.ImportRecord{{Title: "x"}}, 4)
	if err == nil {
		t.Fatal("expected error when the pool fetch fails")
	}
}

func TestRunBatchConcurrencyLevels(t *testing.T) {
	for _, concurrency := range []int{0, 1, 4, 16} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			svc := &fakeService{}
			var records []models.ImportRecord
			for i := 0; i < 50; i++ {
				records = append(records, models.ImportRecord{Title: fmt.Sprintf("unique task %d", i)})
			}

			result, err := RunBatch(context.Background(), svc, "u1", records, concurrency)
			if err != nil {
				t.Fatal(err)
			}
			if result.Imported != 50 || result.Skipped != 0 {
				t.Fatalf("got %+v, want imported=50", result)
			}
			if result.Imported+result.Skipped != result.Total {
				t.Fatalf("counts do not add up: %+v", result)
			}
		})
	}
}

func TestRunBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &fakeService{}
	_, err := RunBatch(ctx, svc, "u1", []models.ImportRecord{{Title: "x"}}, 2)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
