package storage

import (
	"strings"
	"testing"
	"time"
)

// TestPlaceholders verifies numbered value tuples for batch inserts.
func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n, cols int
		want    string
	}{
		{1, 3, "($1,$2,$3)"},
		{2, 2, "($1,$2),($3,$4)"},
		{3, 1, "($1),($2),($3)"},
		{0, 4, ""},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n, tt.cols); got != tt.want {
			t.Errorf("placeholders(%d, %d) = %q, want %q", tt.n, tt.cols, got, tt.want)
		}
	}
}

// TestSessionQueryCategoryFilter verifies that the category clause and its
// argument are only added when a category is given.
func TestSessionQueryCategoryFilter(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	q, args := sessionQuery(start, end, 3, "")
	if strings.Contains(q, "category = $4") {
		t.Errorf("unfiltered query has category clause: %s", q)
	}
	if len(args) != 3 {
		t.Errorf("args = %d, want 3", len(args))
	}

	q, args = sessionQuery(start, end, 3, "ppg")
	if !strings.Contains(q, "category = $4") {
		t.Errorf("filtered query lacks category clause: %s", q)
	}
	if len(args) != 4 || args[3] != "ppg" {
		t.Errorf("args = %v, want category as 4th", args)
	}
	if !strings.HasSuffix(q, "ORDER BY created_at DESC") {
		t.Errorf("query does not end with ordering: %s", q)
	}
}

// TestTruncInterval verifies bucket names map to date_trunc fields.
func TestTruncInterval(t *testing.T) {
	tests := map[string]string{
		"1 week":  "week",
		"weekly":  "week",
		"1 month": "month",
		"month":   "month",
		"":        "week",
		"bogus":   "week",
	}
	for in, want := range tests {
		if got := truncInterval(in); got != want {
			t.Errorf("truncInterval(%q) = %q, want %q", in, got, want)
		}
	}
}
