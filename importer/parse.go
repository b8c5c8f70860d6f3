package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taskport/taskport/models"
)

// Input validation errors; handlers surface these as 400s
var (
	ErrUnsupportedType = errors.New("unsupported file type, expected JSON or CSV")
	ErrFileTooLarge    = errors.New("file exceeds the maximum import size")
	ErrInvalidJSON     = errors.New("invalid JSON, expected an array of todos or a {\"todos\": [...]} object")
	ErrNoRecords       = errors.New("no importable records found in file")
)

// jsonEnvelope is the preferred export format: {"todos": [...]}
type jsonEnvelope struct {
	Todos []map[string]any `json:"todos"`
}

// ValidateFile checks extension and size before any parsing happens
func ValidateFile(filename string, size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("%w (%d bytes, limit %d)", ErrFileTooLarge, size, maxSize)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".csv":
		return nil
	}
	return ErrUnsupportedType
}

// ParseFile turns an uploaded JSON or CSV file into normalized records.
// Rows without a usable title are dropped.
func ParseFile(filename string, data []byte) ([]models.ImportRecord, error) {
	var rows []map[string]any
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		rows, err = parseJSONRows(data)
	case ".csv":
		rows, err = ParseCSV(string(data))
	default:
		return nil, ErrUnsupportedType
	}
	if err != nil {
		return nil, err
	}

	records := NormalizeRows(rows)
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// parseJSONRows accepts the {"todos": [...]} envelope or a bare array
func parseJSONRows(data []byte) ([]map[string]any, error) {
	var envelope jsonEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Todos != nil {
		return envelope.Todos, nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}

	return nil, ErrInvalidJSON
}
