package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/taskport/taskport/models"
)

func TestListTodos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/todos" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("userId"); got != "u1" {
			t.Errorf("userId = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "1", "title": "Buy milk"},
				{"id": "2", "title": "Walk dog"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	todos, err := client.ListTodos(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 2 || todos[0].Title != "Buy milk" {
		t.Fatalf("unexpected todos: %+v", todos)
	}
}

func TestCreateTodo(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "new-1", "title": "Buy milk"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	rec := models.ImportRecord{Title: "Buy milk", ExternalID: "gh-1"}
	created, err := client.CreateTodo(context.Background(), "u1", rec, "parent-9")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "new-1" {
		t.Errorf("created.ID = %q", created.ID)
	}
	if gotPayload["userId"] != "u1" || gotPayload["parentId"] != "parent-9" || gotPayload["externalId"] != "gh-1" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}
}

func TestCreateTodoUntitledFallback(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "new-1", "title": "Untitled"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.CreateTodo(context.Background(), "u1", models.ImportRecord{}, ""); err != nil {
		t.Fatal(err)
	}
	if gotPayload["title"] != "Untitled" {
		t.Errorf("blank title should default to Untitled, got %v", gotPayload["title"])
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.ListTodos(context.Background(), "u1"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.ListTodos(context.Background(), "u1"); err == nil {
		t.Fatal("expected error on 400")
	}
	if attempts.Load() != 1 {
		t.Errorf("4xx must not be retried, attempts = %d", attempts.Load())
	}
}

func TestUpstreamFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "quota exceeded"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.ListTodos(context.Background(), "u1"); err == nil {
		t.Fatal("expected error for success=false envelope")
	}
	if _, err := client.CreateTodo(context.Background(), "u1", models.ImportRecord{Title: "x"}, ""); err == nil {
		t.Fatal("expected error for success=false envelope")
	}
}
