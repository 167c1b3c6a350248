package engine

import (
	"sort"

	"docketlens/internal/core/query"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortRows stably sorts rows by the spec's column.
// Rows with a null sort value always sort after all defined values, in both
// directions, so unknown data stays isolated at the tail.
// A nil spec preserves input order
func SortRows(rows []Row, spec *query.SortSpec) []Row {
	out := append([]Row(nil), rows...)
	if spec == nil || spec.Column == "" {
		return out
	}

	// collators keep internal buffers, so build one per sort
	coll := collate.New(language.English, collate.Loose)
	desc := spec.Direction == query.Desc

	sort.SliceStable(out, func(i, j int) bool {
		a := FieldValue(out[i], spec.Column)
		b := FieldValue(out[j], spec.Column)
		switch {
		case a.Null() && b.Null():
			return false
		case a.Null():
			return false
		case b.Null():
			return true
		}
		c := compareValues(coll, a, b)
		if desc {
			c = -c
		}
		return c < 0
	})
	return out
}

// compareValues orders two defined values: numerically when both reduce to
// numbers, by time when both are times, locale-aware lexicographic otherwise
func compareValues(coll *collate.Collator, a, b Value) int {
	if a.Kind == ValueTime && b.Kind == ValueTime {
		switch {
		case a.Time.Before(b.Time):
			return -1
		case a.Time.After(b.Time):
			return 1
		}
		return 0
	}
	if a.Kind == ValueNumber && b.Kind == ValueNumber {
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	}
	return coll.CompareString(a.String(), b.String())
}
