package importer

import (
	"reflect"
	"testing"

	"github.com/taskport/taskport/models"
)

func TestNormalizeRowTitle(t *testing.T) {
	// name is the fallback title key
	rec, ok := NormalizeRow(map[string]any{"name": "Walk dog"})
	if !ok || rec.Title != "Walk dog" {
		t.Fatalf("expected title from name key, got %+v ok=%v", rec, ok)
	}

	// rows without a usable title are dropped
	for _, row := range []map[string]any{
		{},
		{"title": ""},
		{"title": "   "},
		{"description": "no title here"},
	} {
		if _, ok := NormalizeRow(row); ok {
			t.Errorf("expected row %v to be dropped", row)
		}
	}
}

func TestNormalizeRowDefaults(t *testing.T) {
	rec, ok := NormalizeRow(map[string]any{"title": "Task"})
	if !ok {
		t.Fatal("expected row to survive")
	}
	if rec.Status != models.StatusTodo {
		t.Errorf("default status = %v, want TODO", rec.Status)
	}
	if rec.Priority != models.PriorityMedium {
		t.Errorf("default priority = %v, want MEDIUM", rec.Priority)
	}
	if rec.Category != nil || rec.DueDate != nil {
		t.Errorf("expected nil category and due date, got %+v", rec)
	}
	if len(rec.Tags) != 0 {
		t.Errorf("expected empty tags, got %v", rec.Tags)
	}
}

func TestNormalizeRowCompletedDrivesStatus(t *testing.T) {
	rec, _ := NormalizeRow(map[string]any{"title": "Task", "completed": true})
	if rec.Status != models.StatusDone {
		t.Errorf("completed=true should yield DONE, got %v", rec.Status)
	}

	rec, _ = NormalizeRow(map[string]any{"title": "Task", "completed": "yes"})
	if rec.Status != models.StatusDone {
		t.Errorf("completed=yes should yield DONE, got %v", rec.Status)
	}

	// explicit status wins over completed
	rec, _ = NormalizeRow(map[string]any{"title": "Task", "completed": true, "status": "IN_PROGRESS"})
	if rec.Status != models.StatusInProgress {
		t.Errorf("explicit status should win, got %v", rec.Status)
	}
}

func TestNormalizeRowTags(t *testing.T) {
	tests := []struct {
		tags any
		want []string
		desc string
	}{
		{[]any{"home", "urgent"}, []string{"home", "urgent"}, "json array"},
		{"home, urgent", []string{"home", "urgent"}, "comma-separated string"},
		{"home,, urgent ,", []string{"home", "urgent"}, "empties filtered"},
		{nil, []string{}, "absent"},
		{42.0, []string{}, "unsupported shape"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rec, _ := NormalizeRow(map[string]any{"title": "Task", "tags": tt.tags})
			if !reflect.DeepEqual(rec.Tags, tt.want) {
				t.Errorf("tags = %v, want %v", rec.Tags, tt.want)
			}
		})
	}
}

func TestNormalizeRowBookkeeping(t *testing.T) {
	rec, _ := NormalizeRow(map[string]any{
		"title":      "Task",
		"id":         42.0, // JSON numbers decode as float64
		"createdAt":  "2024-01-01T00:00:00Z",
		"externalId": "gh-7",
		"parentId":   "p-1",
	})

	if rec.OriginalID != "42" {
		t.Errorf("OriginalID = %q, want 42", rec.OriginalID)
	}
	if rec.OriginalCreatedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("OriginalCreatedAt = %q", rec.OriginalCreatedAt)
	}
	if rec.ExternalID != "gh-7" {
		t.Errorf("ExternalID = %q", rec.ExternalID)
	}
	if rec.ParentOriginalID != "p-1" {
		t.Errorf("ParentOriginalID = %q", rec.ParentOriginalID)
	}

	// originalId beats id when both are present
	rec, _ = NormalizeRow(map[string]any{"title": "Task", "originalId": "orig", "id": "raw"})
	if rec.OriginalID != "orig" {
		t.Errorf("OriginalID = %q, want orig", rec.OriginalID)
	}
}

func TestNormalizeRows(t *testing.T) {
	rows := []map[string]any{
		{"title": "Keep me"},
		{"description": "dropped, no title"},
		{"name": "Also kept"},
	}
	records := NormalizeRows(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "Keep me" || records[1].Title != "Also kept" {
		t.Errorf("unexpected records: %+v", records)
	}
}
