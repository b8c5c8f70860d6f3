package importer

import (
	"errors"
	"time"
)

// Jaccard computes set similarity in [0,1]: intersection size over union
// size. Two empty sets compare as identical (1), not undefined.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// dateLayouts are tried in order when parsing due dates
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var errUnparseableDate = errors.New("unparseable date")

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnparseableDate
}

// SameDay reports whether two optional dates fall on the same calendar day
// (local time). Both absent is true; exactly one absent is false. If either
// value fails to parse, falls back to raw string equality.
func SameDay(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	ta, errA := parseDate(*a)
	tb, errB := parseDate(*b)
	if errA != nil || errB != nil {
		return *a == *b
	}

	// Offset-carrying timestamps must land in local time before the
	// calendar components are compared
	y1, m1, d1 := ta.In(time.Local).Date()
	y2, m2, d2 := tb.In(time.Local).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SameNullable compares two optional strings, treating nil and empty string
// as the same "absent" value.
func SameNullable(a, b *string) bool {
	av := ""
	if a != nil {
		av = *a
	}
	bv := ""
	if b != nil {
		bv = *b
	}
	return av == bv
}

// dayKey reduces an optional date to a day-granularity string for composite
// dedup keys. Unparseable values pass through verbatim.
func dayKey(d *string) string {
	if d == nil {
		return ""
	}
	t, err := parseDate(*d)
	if err != nil {
		return *d
	}
	return t.Format("2006-01-02")
}
