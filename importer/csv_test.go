package importer

import (
	"errors"
	"testing"
)

func TestParseCSVBasic(t *testing.T) {
	rows, err := ParseCSV("Title,Priority\nBuy milk,HIGH\nWalk dog,LOW\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["title"] != "Buy milk" || rows[0]["priority"] != "HIGH" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
}

func TestParseCSVHeaderMapping(t *testing.T) {
	rows, err := ParseCSV("ID,Title,Due Date,Created At,Custom Header\n1,Task,2024-01-15,2024-01-01,x\n")
	if err != nil {
		t.Fatal(err)
	}
	row := rows[0]
	if row["id"] != "1" {
		t.Errorf("ID header should map to id, got %v", row)
	}
	if row["dueDate"] != "2024-01-15" {
		t.Errorf("Due Date header should map to dueDate, got %v", row)
	}
	if row["createdAt"] != "2024-01-01" {
		t.Errorf("Created At header should map to createdAt, got %v", row)
	}
	if row["custom header"] != "x" {
		t.Errorf("unknown headers should be retained lowercase, got %v", row)
	}
}

func TestParseCSVBOM(t *testing.T) {
	rows, err := ParseCSV("\ufeffTitle\nTask\n")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["title"] != "Task" {
		t.Errorf("BOM should be stripped before header parsing, got %v", rows[0])
	}
}

func TestParseCSVQuotedFields(t *testing.T) {
	// comma inside quotes
	rows, err := ParseCSV("Title,Description\n\"Buy milk, eggs\",weekly run\n")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["title"] != "Buy milk, eggs" {
		t.Errorf("quoted comma mishandled: %v", rows[0])
	}

	// newline inside quotes
	rows, err = ParseCSV("Title,Description\nTask,\"line one\nline two\"\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("embedded newline split the record: %d rows", len(rows))
	}
	if rows[0]["description"] != "line one\nline two" {
		t.Errorf("embedded newline mishandled: %q", rows[0]["description"])
	}

	// doubled quotes unescape to a literal quote
	rows, err = ParseCSV("Title\n\"Say \"\"hi\"\"\"\n")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["title"] != `Say "hi"` {
		t.Errorf("doubled quotes mishandled: %q", rows[0]["title"])
	}
}

func TestParseCSVCRLF(t *testing.T) {
	rows, err := ParseCSV("Title,Priority\r\nTask,HIGH\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["priority"] != "HIGH" {
		t.Errorf("CRLF input mishandled: %v", rows[0])
	}
}

func TestParseCSVBlankLines(t *testing.T) {
	rows, err := ParseCSV("Title\n\nTask\n\n\nOther\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("blank lines should be skipped, got %d rows", len(rows))
	}
}

func TestParseCSVInvalid(t *testing.T) {
	for _, data := range []string{"", "Title\n", "Title,Priority"} {
		if _, err := ParseCSV(data); !errors.Is(err, ErrInvalidCSV) {
			t.Errorf("ParseCSV(%q) = %v, want ErrInvalidCSV", data, err)
		}
	}
}

func TestParseCSVShortRow(t *testing.T) {
	// missing trailing fields simply stay absent
	rows, err := ParseCSV("Title,Priority,Category\nTask,HIGH\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rows[0]["category"]; ok {
		t.Errorf("missing field should be absent from the row, got %v", rows[0])
	}
}
