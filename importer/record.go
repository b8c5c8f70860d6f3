package importer

import (
	"fmt"
	"strings"

	"github.com/taskport/taskport/models"
)

// NormalizeRow maps one heterogeneous input row (decoded JSON object or a
// CSV row keyed by header) into the canonical ImportRecord. Returns false
// when the row has no usable title and must be dropped.
func NormalizeRow(row map[string]any) (models.ImportRecord, bool) {
	title := strings.TrimSpace(getString(row, "title", "name"))
	if title == "" {
		return models.ImportRecord{}, false
	}

	completed := getBool(row, "completed", "done", "isCompleted")

	rec := models.ImportRecord{
		Title:       title,
		Description: getString(row, "description", "notes"),
		Status:      models.ParseStatus(getString(row, "status"), completed),
		Priority:    models.ParsePriority(getString(row, "priority")),
		Category:    optString(row, "category"),
		DueDate:     optString(row, "dueDate", "due_date", "deadline"),
		Tags:        getTags(row),
		Completed:   completed,
	}

	// Bookkeeping fields are carried through only when the source row has
	// them; never synthesized here.
	rec.OriginalID = getString(row, "originalId", "id")
	rec.OriginalCreatedAt = getString(row, "originalCreatedAt", "createdAt", "created_at")
	rec.OriginalUpdatedAt = getString(row, "originalUpdatedAt", "updatedAt", "updated_at")
	rec.ExternalID = getString(row, "externalId", "external_id")
	rec.ExternalSource = getString(row, "externalSource", "external_source")
	rec.ParentOriginalID = getString(row, "parentOriginalId", "parent_original_id", "parentId")

	return rec, true
}

// NormalizeRows runs NormalizeRow over a batch, dropping titleless rows.
func NormalizeRows(rows []map[string]any) []models.ImportRecord {
	records := make([]models.ImportRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := NormalizeRow(row); ok {
			records = append(records, rec)
		}
	}
	return records
}

// getString returns the first present key rendered as a string. Numbers are
// formatted rather than discarded since source ids are often numeric.
func getString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			if t == float64(int64(t)) {
				return fmt.Sprintf("%d", int64(t))
			}
			return fmt.Sprintf("%v", t)
		case int:
			return fmt.Sprintf("%d", t)
		case int64:
			return fmt.Sprintf("%d", t)
		case bool:
			return fmt.Sprintf("%t", t)
		}
	}
	return ""
}

// optString returns a pointer for nullable fields, nil when absent or empty
func optString(row map[string]any, keys ...string) *string {
	s := strings.TrimSpace(getString(row, keys...))
	if s == "" {
		return nil
	}
	return &s
}

// getBool returns the first present boolean-ish value, nil when absent
func getBool(row map[string]any, keys ...string) *bool {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case bool:
			b := t
			return &b
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "1":
				b := true
				return &b
			case "false", "no", "0":
				b := false
				return &b
			}
		}
	}
	return nil
}

// getTags accepts a tags array as-is, or a comma-separated string split,
// trimmed and filtered of empties. Anything else yields an empty list.
func getTags(row map[string]any) []string {
	v, ok := row["tags"]
	if !ok || v == nil {
		return []string{}
	}

	switch t := v.(type) {
	case []string:
		return cleanTags(t)
	case []any:
		tags := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return cleanTags(tags)
	case string:
		return cleanTags(strings.Split(t, ","))
	}
	return []string{}
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
