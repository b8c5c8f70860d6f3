package models

import "strings"

// Priority is the todo priority level
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Status is the todo workflow status
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReview     Status = "REVIEW"
	StatusDone       Status = "DONE"
)

// ParsePriority maps a free-form priority value to a Priority.
// Unrecognized values default to MEDIUM.
func ParsePriority(s string) Priority {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return PriorityLow
	case "HIGH":
		return PriorityHigh
	case "URGENT":
		return PriorityUrgent
	case "MEDIUM":
		return PriorityMedium
	default:
		return PriorityMedium
	}
}

// ParseStatus maps a free-form status value to a Status. When the value is
// absent, a completed flag (if present) decides between DONE and TODO;
// otherwise the status defaults to TODO.
func ParseStatus(s string, completed *bool) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TODO":
		return StatusTodo
	case "IN_PROGRESS":
		return StatusInProgress
	case "REVIEW":
		return StatusReview
	case "DONE":
		return StatusDone
	}
	if completed != nil {
		if *completed {
			return StatusDone
		}
		return StatusTodo
	}
	return StatusTodo
}

// ImportRecord is the canonical shape of one imported row after normalization.
// All downstream pipeline stages operate on this type only.
type ImportRecord struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	Category    *string  `json:"category"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`

	// Carried through only when present in the source row
	Completed         *bool  `json:"completed,omitempty"`
	OriginalID        string `json:"originalId,omitempty"`
	OriginalCreatedAt string `json:"originalCreatedAt,omitempty"`
	OriginalUpdatedAt string `json:"originalUpdatedAt,omitempty"`
	ExternalID        string `json:"externalId,omitempty"`
	ExternalSource    string `json:"externalSource,omitempty"`

	// ParentOriginalID references another record's OriginalID; present only
	// on child records.
	ParentOriginalID string `json:"parentOriginalId,omitempty"`
}

// ExistingTodo is the already-persisted record shape used as the
// duplicate-matching corpus.
type ExistingTodo struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	DueDate        *string `json:"dueDate,omitempty"`
	Category       *string `json:"category,omitempty"`
	ParentID       string  `json:"parentId,omitempty"`
	ExternalID     string  `json:"externalId,omitempty"`
	ExternalSource string  `json:"externalSource,omitempty"`
}

// Import session stages
const (
	StageReady    = "ready"
	StageParents  = "parents"
	StageChildren = "children"
)

// GroupProgress tracks per-group counters for a staged import
type GroupProgress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
}

// ImportStatus is the persisted progress projection of a staged import session
type ImportStatus struct {
	Stage    string        `json:"stage"`
	Parents  GroupProgress `json:"parents"`
	Children GroupProgress `json:"children"`
}
