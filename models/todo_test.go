package models

import "testing"

func boolptr(b bool) *bool { return &b }

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"LOW", PriorityLow},
		{"low", PriorityLow},
		{" High ", PriorityHigh},
		{"URGENT", PriorityUrgent},
		{"MEDIUM", PriorityMedium},
		{"", PriorityMedium},
		{"P1", PriorityMedium},
		{"critical", PriorityMedium},
	}

	for _, tt := range tests {
		if got := ParsePriority(tt.in); got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in        string
		completed *bool
		want      Status
		desc      string
	}{
		{"TODO", nil, StatusTodo, "explicit todo"},
		{"in_progress", nil, StatusInProgress, "case-insensitive"},
		{"REVIEW", nil, StatusReview, "explicit review"},
		{"DONE", nil, StatusDone, "explicit done"},
		{"", boolptr(true), StatusDone, "completed flag decides when status absent"},
		{"", boolptr(false), StatusTodo, "not completed"},
		{"", nil, StatusTodo, "nothing known defaults to todo"},
		{"archived", nil, StatusTodo, "unknown value defaults to todo"},
		{"archived", boolptr(true), StatusDone, "completed flag decides for unknown status"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := ParseStatus(tt.in, tt.completed); got != tt.want {
				t.Errorf("ParseStatus(%q, %v) = %v, want %v", tt.in, tt.completed, got, tt.want)
			}
		})
	}
}
