package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/taskport/taskport/log"
	"github.com/taskport/taskport/models"
)

// Client talks to the upstream todo service. All responses share the
// {success, data, error} envelope; transient failures (network, 5xx) are
// retried with exponential backoff before being reported to the caller.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates an upstream client for the given base URL
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// envelope is the upstream response wrapper
type envelope struct {
	Success bool                `json:"success"`
	Data    *models.ExistingTodo `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type listEnvelope struct {
	Success bool                  `json:"success"`
	Data    []models.ExistingTodo `json:"data"`
	Error   string                `json:"error,omitempty"`
}

// createPayload is the upstream create request body
type createPayload struct {
	UserID      string          `json:"userId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      models.Status   `json:"status"`
	Priority    models.Priority `json:"priority"`
	Category    *string         `json:"category,omitempty"`
	DueDate     *string         `json:"dueDate,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Completed   *bool           `json:"completed,omitempty"`
	ParentID    string          `json:"parentId,omitempty"`
	ExternalID  string          `json:"externalId,omitempty"`
	ExternalSrc string          `json:"externalSource,omitempty"`
}

// ListTodos fetches the user's full existing-record pool
func (c *Client) ListTodos(ctx context.Context, userID string) ([]models.ExistingTodo, error) {
	url := fmt.Sprintf("%s/api/todos?userId=%s", c.baseURL, userID)

	body, err := c.doWithRetry(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var resp listEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("upstream list: invalid response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("upstream list failed: %s", resp.Error)
	}
	return resp.Data, nil
}

// CreateTodo creates one todo upstream. parentID may be empty.
func (c *Client) CreateTodo(ctx context.Context, userID string, rec models.ImportRecord, parentID string) (*models.ExistingTodo, error) {
	title := rec.Title
	if title == "" {
		title = "Untitled"
	}

	payload := createPayload{
		UserID:      userID,
		Title:       title,
		Description: rec.Description,
		Status:      rec.Status,
		Priority:    rec.Priority,
		Category:    rec.Category,
		DueDate:     rec.DueDate,
		Tags:        rec.Tags,
		Completed:   rec.Completed,
		ParentID:    parentID,
		ExternalID:  rec.ExternalID,
		ExternalSrc: rec.ExternalSource,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	body, err := c.doWithRetry(ctx, http.MethodPost, c.baseURL+"/api/todos", data)
	if err != nil {
		return nil, err
	}

	var resp envelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("upstream create: invalid response: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("upstream create failed: %s", resp.Error)
	}
	return resp.Data, nil
}

// doWithRetry issues one request, retrying network errors and 5xx
// responses. 4xx responses are permanent and returned immediately.
func (c *Client) doWithRetry(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body []byte

	operation := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("upstream returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("upstream returned %d: %s", resp.StatusCode, data))
		}

		body = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx))
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("upstream request failed")
		return nil, err
	}
	return body, nil
}
