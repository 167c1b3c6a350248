// Package query holds the predicate model: the canonical (filters, search,
// sort, page) tuple every browsing view, repo predicate and cache key is
// derived from. Types here are pure values with no I/O
package query

import (
	"sort"
	"strings"
)

// Direction is a sort direction
type Direction string

// Sort directions
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Mode selects match semantics for discrete filters over multi-value fields
type Mode string

// Discrete filter modes
const (
	// ModeIncludes keeps a row when any selected label is present
	ModeIncludes Mode = "includes"

	// ModeAtLeast keeps a row only when every selected label is present
	ModeAtLeast Mode = "at_least"

	// ModeExact keeps a row only when its label set equals the selection
	ModeExact Mode = "exact"
)

// Kind discriminates the filter union
type Kind uint8

// Filter kinds
const (
	KindDiscrete Kind = iota
	KindText
	KindRange
)

// Filter is a closed union over the three filter shapes.
// Only the fields of the active Kind are meaningful
type Filter struct {
	Kind Kind

	// discrete
	Values []string
	Mode   Mode

	// text
	Text string

	// range or exact, bounds optional and independent
	Min   *float64
	Max   *float64
	Exact []float64
}

// Empty reports whether the filter imposes no constraint.
// An empty filter is treated identically to an absent field everywhere
func (f Filter) Empty() bool {
	switch f.Kind {
	case KindDiscrete:
		return len(f.Values) == 0
	case KindText:
		return strings.TrimSpace(f.Text) == ""
	case KindRange:
		return f.Min == nil && f.Max == nil && len(f.Exact) == 0
	}
	return true
}

// Discrete builds a discrete filter with includes semantics
func Discrete(values ...string) Filter {
	return Filter{Kind: KindDiscrete, Values: values, Mode: ModeIncludes}
}

// DiscreteMode builds a discrete filter with an explicit mode
func DiscreteMode(mode Mode, values ...string) Filter {
	return Filter{Kind: KindDiscrete, Values: values, Mode: mode}
}

// Text builds a case-insensitive substring filter
func Text(s string) Filter { return Filter{Kind: KindText, Text: s} }

// Range builds a range filter; pass nil to leave a bound open
func Range(min, max *float64, exact ...float64) Filter {
	return Filter{Kind: KindRange, Min: min, Max: max, Exact: exact}
}

// FilterSet maps a field key to its filter.
// Field keys may be dotted paths into nested row objects
type FilterSet map[string]Filter

// SortSpec names a sort column and direction
type SortSpec struct {
	Column    string
	Direction Direction
}

// PageSpec selects a page; Page is 1-based
type PageSpec struct {
	Page int
	Size int
}

// DefaultPageSize is used whenever a page size is absent or invalid
const DefaultPageSize = 25

// Query is the canonical query tuple.
// A nil Sort means natural order (reverse chronological from storage)
type Query struct {
	Filters FilterSet
	Search  string
	Sort    *SortSpec
	Page    PageSpec
}

// New returns an empty normalized query (page 1, default size)
func New() Query {
	return Query{Filters: FilterSet{}, Page: PageSpec{Page: 1, Size: DefaultPageSize}}
}

// Normalize is the single place the empty-equals-absent invariant is
// enforced: empty filters are dropped, discrete values are deduplicated and
// sorted (exacts likewise sorted) for order-independent equality and
// serialization, page and size
// are clamped to sane values, and a blank sort column clears the sort.
// Every consumer works on normalized queries only
func (q Query) Normalize() Query {
	out := Query{Search: strings.TrimSpace(q.Search), Page: q.Page}

	out.Filters = FilterSet{}
	for key, f := range q.Filters {
		key = strings.TrimSpace(key)
		if key == "" || f.Empty() {
			continue
		}
		// trimming can empty a filter that looked constrained
		if f = normalizeFilter(f); !f.Empty() {
			out.Filters[key] = f
		}
	}

	if q.Sort != nil && strings.TrimSpace(q.Sort.Column) != "" {
		dir := q.Sort.Direction
		if dir != Desc {
			dir = Asc
		}
		out.Sort = &SortSpec{Column: strings.TrimSpace(q.Sort.Column), Direction: dir}
	}

	if out.Page.Page < 1 {
		out.Page.Page = 1
	}
	if out.Page.Size < 1 {
		out.Page.Size = DefaultPageSize
	}
	return out
}

func normalizeFilter(f Filter) Filter {
	switch f.Kind {
	case KindDiscrete:
		vals := make([]string, 0, len(f.Values))
		seen := make(map[string]bool, len(f.Values))
		for _, v := range f.Values {
			if v = strings.TrimSpace(v); v != "" && !seen[v] {
				seen[v] = true
				vals = append(vals, v)
			}
		}
		sort.Strings(vals)
		mode := f.Mode
		if mode != ModeAtLeast && mode != ModeExact {
			mode = ModeIncludes
		}
		return Filter{Kind: KindDiscrete, Values: vals, Mode: mode}
	case KindText:
		return Filter{Kind: KindText, Text: strings.TrimSpace(f.Text)}
	case KindRange:
		exact := append([]float64(nil), f.Exact...)
		sort.Float64s(exact)
		return Filter{Kind: KindRange, Min: f.Min, Max: f.Max, Exact: exact}
	}
	return f
}

// Unpaged strips the page spec (back to page 1, default size).
// Aggregate and time-series operations summarize the whole filtered set, so
// their cache keys must not vary with pagination
func (q Query) Unpaged() Query {
	q.Page = PageSpec{Page: 1, Size: DefaultPageSize}
	return q.Normalize()
}

// WithFilters returns a copy with the filter set replaced
func (q Query) WithFilters(fs FilterSet) Query {
	q.Filters = fs
	return q.Normalize()
}

// WithSearch returns a copy with the search term replaced
func (q Query) WithSearch(term string) Query {
	q.Search = term
	return q.Normalize()
}

// WithSort returns a copy with the sort replaced; nil clears it
func (q Query) WithSort(s *SortSpec) Query {
	q.Sort = s
	return q.Normalize()
}

// WithPage returns a copy on the given 1-based page
func (q Query) WithPage(n int) Query {
	q.Page.Page = n
	return q.Normalize()
}

// WithPageSize returns a copy with the given page size
func (q Query) WithPageSize(n int) Query {
	q.Page.Size = n
	return q.Normalize()
}
