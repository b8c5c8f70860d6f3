package importer

import (
	"errors"
	"strings"
)

// ErrInvalidCSV is returned when a CSV file has no header row or no data rows
var ErrInvalidCSV = errors.New("CSV file must have a header row and at least one data row")

// csvHeaderMap translates the English export headers to canonical row keys.
// Unrecognized headers are retained lowercase.
var csvHeaderMap = map[string]string{
	"ID":          "id",
	"Title":       "title",
	"Description": "description",
	"Status":      "status",
	"Completed":   "completed",
	"Priority":    "priority",
	"Category":    "category",
	"Tags":        "tags",
	"Due Date":    "dueDate",
	"Created At":  "createdAt",
	"Updated At":  "updatedAt",
}

func csvHeaderKey(header string) string {
	header = strings.TrimSpace(header)
	if key, ok := csvHeaderMap[header]; ok {
		return key
	}
	return strings.ToLower(header)
}

// ParseCSV parses CSV content into header-keyed rows. Tolerances:
// UTF-8 BOM stripped, double-quoted fields may contain commas and newlines,
// doubled quotes escape a literal quote, bare carriage returns are dropped
// (CRLF input works), blank lines are skipped. The first non-blank line is
// the header row; everything after is data.
func ParseCSV(data string) ([]map[string]any, error) {
	data = strings.TrimPrefix(data, "\ufeff")

	lines := splitCSVRecords(data)
	if len(lines) < 2 {
		return nil, ErrInvalidCSV
	}

	headers := splitCSVFields(lines[0])
	if len(headers) == 0 {
		return nil, ErrInvalidCSV
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = csvHeaderKey(h)
	}

	rows := make([]map[string]any, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitCSVFields(line)
		row := make(map[string]any, len(keys))
		for i, key := range keys {
			if i < len(fields) {
				row[key] = fields[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// splitCSVRecords splits content into logical records, honoring newlines
// embedded in quoted fields and skipping blank records.
func splitCSVRecords(data string) []string {
	var records []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(data); i++ {
		ch := data[i]
		switch ch {
		case '"':
			inQuotes = !inQuotes
			cur.WriteByte(ch)
		case '\r':
			// dropped; CRLF and stray \r both tolerated
		case '\n':
			if inQuotes {
				cur.WriteByte(ch)
			} else {
				if strings.TrimSpace(cur.String()) != "" {
					records = append(records, cur.String())
				}
				cur.Reset()
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		records = append(records, cur.String())
	}

	return records
}

// splitCSVFields splits one record into fields, unescaping doubled quotes
func splitCSVFields(record string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(record); i++ {
		ch := record[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(record) && record[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, cur.String())

	return fields
}
