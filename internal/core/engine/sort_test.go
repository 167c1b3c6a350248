package engine

import (
	"testing"

	"docketlens/internal/core/query"
)

func TestSortNumericAndReverse(t *testing.T) {
	rows := []Row{
		{"id": "a", "attachment_count": 5},
		{"id": "b", "attachment_count": 2},
		{"id": "c", "attachment_count": 10},
	}
	asc := SortRows(rows, &query.SortSpec{Column: "attachment_count", Direction: query.Asc})
	if !sameIDs(ids(asc), "b", "a", "c") {
		t.Fatalf("asc = %v", ids(asc))
	}
	desc := SortRows(rows, &query.SortSpec{Column: "attachment_count", Direction: query.Desc})
	if !sameIDs(ids(desc), "c", "a", "b") {
		t.Fatalf("desc = %v", ids(desc))
	}
	// no ties, so desc is exactly asc reversed
	for i := range asc {
		if FieldValue(asc[i], "id").String() != FieldValue(desc[len(desc)-1-i], "id").String() {
			t.Fatalf("desc is not the reverse of asc: %v vs %v", ids(asc), ids(desc))
		}
	}
}

func TestSortLexicographic(t *testing.T) {
	rows := []Row{
		{"id": "1", "organization": "zeta"},
		{"id": "2", "organization": "Alpha"},
		{"id": "3", "organization": "beta"},
	}
	got := SortRows(rows, &query.SortSpec{Column: "organization", Direction: query.Asc})
	// loose collation orders case-insensitively
	if !sameIDs(ids(got), "2", "3", "1") {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSortNullsLastBothDirections(t *testing.T) {
	rows := []Row{
		{"id": "1"},
		{"id": "2", "posted_date": "2025-04-02"},
		{"id": "3", "posted_date": "2025-04-01"},
		{"id": "4"},
	}
	for _, dir := range []query.Direction{query.Asc, query.Desc} {
		got := SortRows(rows, &query.SortSpec{Column: "posted_date", Direction: dir})
		tail := ids(got)[2:]
		if !sameIDs(tail, "1", "4") {
			t.Fatalf("dir %s: nulls not last (and stable): %v", dir, ids(got))
		}
	}
}

func TestSortStability(t *testing.T) {
	rows := []Row{
		{"id": "1", "state": "OH"},
		{"id": "2", "state": "OH"},
		{"id": "3", "state": "OH"},
	}
	got := SortRows(rows, &query.SortSpec{Column: "state", Direction: query.Asc})
	if !sameIDs(ids(got), "1", "2", "3") {
		t.Fatalf("ties must keep input order, got %v", ids(got))
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	rows := []Row{
		{"id": "1", "attachment_count": 2},
		{"id": "2", "attachment_count": 1},
	}
	_ = SortRows(rows, &query.SortSpec{Column: "attachment_count", Direction: query.Asc})
	if !sameIDs(ids(rows), "1", "2") {
		t.Fatalf("input slice reordered: %v", ids(rows))
	}
}
