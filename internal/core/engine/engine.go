package engine

import (
	"strings"

	"docketlens/internal/core/query"
)

// Options tune one evaluation.
// Zero value gives substring search over all own scalar fields, stance at
// "stance" and lookup groups at "lookup_id"
type Options struct {
	// SearchPaths are the dotted paths the search term is applied to.
	// Empty means every top-level scalar field of each row
	SearchPaths []string

	// MultiValuePaths name the comma-delimited label-set fields; discrete
	// filters on any other string field match the whole value, same as the
	// storage predicates. Nil means "themes"
	MultiValuePaths []string

	// StancePath locates the 3-way stance classification
	StancePath string

	// LookupPath locates the duplicate-submission group key
	LookupPath string

	// Dedupe additionally computes stats collapsed by lookup group
	Dedupe bool
}

func (o Options) withDefaults() Options {
	if o.MultiValuePaths == nil {
		o.MultiValuePaths = []string{"themes"}
	}
	if o.StancePath == "" {
		o.StancePath = "stance"
	}
	if o.LookupPath == "" {
		o.LookupPath = "lookup_id"
	}
	return o
}

// StanceCounts is the fixed 3-way aggregate over a filtered set
type StanceCounts struct {
	Total   int64 `json:"total"`
	For     int64 `json:"for"`
	Against int64 `json:"against"`
	Neutral int64 `json:"neutral"`
}

// ResultPage is one page of results plus whole-set aggregates.
// Stats always describe the full filtered set, never just the page
type ResultPage struct {
	Rows          []Row         `json:"rows"`
	TotalMatching int64         `json:"total_matching"`
	TotalPages    int           `json:"total_pages"`
	Stats         StanceCounts  `json:"stats"`
	DedupedStats  *StanceCounts `json:"deduped_stats,omitempty"`
}

// Evaluate runs the full pipeline: filter, search, sort, paginate, aggregate.
// Rows, totals and stats all reflect the same query snapshot
func Evaluate(rows []Row, q query.Query, opts Options) ResultPage {
	q = q.Normalize()
	opts = opts.withDefaults()

	filtered := Filtered(rows, q, opts)
	sorted := SortRows(filtered, q.Sort)

	page := ResultPage{
		TotalMatching: int64(len(sorted)),
		TotalPages:    totalPages(len(sorted), q.Page.Size),
		Stats:         StanceStats(filtered, opts.StancePath),
	}
	if opts.Dedupe {
		deduped := DedupedStanceStats(filtered, opts.StancePath, opts.LookupPath)
		page.DedupedStats = &deduped
	}

	lo := (q.Page.Page - 1) * q.Page.Size
	hi := lo + q.Page.Size
	switch {
	case lo >= len(sorted):
		// past the last page is an empty page, not an error
		page.Rows = []Row{}
	case hi > len(sorted):
		page.Rows = sorted[lo:]
	default:
		page.Rows = sorted[lo:hi]
	}
	return page
}

func totalPages(total, size int) int {
	if total == 0 || size < 1 {
		return 0
	}
	return (total + size - 1) / size
}

// Filtered applies the filter set and search term without sorting or
// pagination. CSV export and the aggregate paths share it
func Filtered(rows []Row, q query.Query, opts Options) []Row {
	q = q.Normalize()
	opts = opts.withDefaults()

	multi := make(map[string]bool, len(opts.MultiValuePaths))
	for _, p := range opts.MultiValuePaths {
		multi[p] = true
	}

	out := make([]Row, 0, len(rows))
	term := strings.ToLower(q.Search)
	for _, row := range rows {
		if !matchesFilters(row, q.Filters, multi) {
			continue
		}
		if term != "" && !matchesSearch(row, term, opts.SearchPaths) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesFilters(row Row, fs query.FilterSet, multi map[string]bool) bool {
	for field, f := range fs {
		if !matchesFilter(FieldValue(row, field), f, multi[field]) {
			return false
		}
	}
	return true
}

func matchesFilter(v Value, f query.Filter, multi bool) bool {
	if f.Empty() {
		return true
	}
	switch f.Kind {
	case query.KindDiscrete:
		return matchesDiscrete(v, f, multi)
	case query.KindText:
		return strings.Contains(strings.ToLower(v.String()), strings.ToLower(f.Text))
	case query.KindRange:
		return matchesRange(v, f)
	}
	return true
}

func matchesDiscrete(v Value, f query.Filter, multi bool) bool {
	labels := discreteLabels(v, multi)
	have := make(map[string]bool, len(labels))
	for _, l := range labels {
		have[l] = true
	}
	switch f.Mode {
	case query.ModeAtLeast:
		for _, want := range f.Values {
			if !have[want] {
				return false
			}
		}
		return true
	case query.ModeExact:
		if len(have) != len(f.Values) {
			return false
		}
		for _, want := range f.Values {
			if !have[want] {
				return false
			}
		}
		return true
	default: // includes
		for _, want := range f.Values {
			if have[want] {
				return true
			}
		}
		return false
	}
}

// discreteLabels expands a field value into the labels a discrete filter
// compares against. Only multi-value fields split delimited strings; other
// fields match as one whole label, mirroring the storage predicates
func discreteLabels(v Value, multi bool) []string {
	if multi || v.Kind == ValueStrings {
		return v.Labels()
	}
	if v.Null() {
		return nil
	}
	if s := strings.TrimSpace(v.String()); s != "" {
		return []string{s}
	}
	return nil
}

// matchesRange keeps a row whose numeric value sits within [min,max] or
// equals one of the exacts. Unparseable values fail the filter, never panic
func matchesRange(v Value, f query.Filter) bool {
	n, ok := v.Numeric()
	if !ok {
		return false
	}
	for _, e := range f.Exact {
		if n == e {
			return true
		}
	}
	if f.Min == nil && f.Max == nil {
		return false
	}
	if f.Min != nil && n < *f.Min {
		return false
	}
	if f.Max != nil && n > *f.Max {
		return false
	}
	return true
}

func matchesSearch(row Row, lowerTerm string, paths []string) bool {
	if len(paths) > 0 {
		for _, p := range paths {
			if strings.Contains(strings.ToLower(FieldValue(row, p).String()), lowerTerm) {
				return true
			}
		}
		return false
	}
	// default scan covers own scalar fields only; nested objects would
	// stringify meaninglessly
	for _, raw := range row {
		v := valueOf(raw)
		if v.Null() {
			continue
		}
		if strings.Contains(strings.ToLower(v.String()), lowerTerm) {
			return true
		}
	}
	return false
}
