// Package repo provides postgres (and optional clickhouse) access for comments
package repo

import (
	"fmt"
	"sort"
	"strings"

	"docketlens/internal/core/query"
)

// filterColumns whitelists the field keys a query may touch and maps them to
// columns. Unknown keys are skipped, which both mirrors the engine's
// "unrecognized means unconstrained" rule and keeps user input out of SQL
var filterColumns = map[string]string{
	"id":               "id",
	"title":            "title",
	"comment":          "comment",
	"organization":     "organization",
	"city":             "city",
	"state":            "state",
	"category":         "category",
	"stance":           "stance",
	"themes":           "themes",
	"posted_date":      "posted_date",
	"received_date":    "received_date",
	"lookup_id":        "lookup_id",
	"attachment_count": "attachment_count",
	"created_at":       "created_at",

	// dotted aliases kept for addresses minted by older clients
	"analysis.stance": "stance",
	"analysis.themes": "themes",
}

// multiValueColumns hold comma-delimited label sets
var multiValueColumns = map[string]bool{"themes": true}

// dateColumns compare against unix-second bounds via to_timestamp
var dateColumns = map[string]bool{"posted_date": true, "received_date": true, "created_at": true}

// searchColumns are scanned by the free-text search term
var searchColumns = []string{"title", "comment", "organization", "city", "state"}

type dialect uint8

const (
	dialectPG dialect = iota
	dialectCH
)

// predicate accumulates WHERE clauses with dialect-appropriate placeholders
type predicate struct {
	d       dialect
	clauses []string
	args    []any
}

// ph appends an arg and returns its placeholder
func (p *predicate) ph(arg any) string {
	p.args = append(p.args, arg)
	if p.d == dialectCH {
		return "?"
	}
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicate) where() string {
	if len(p.clauses) == 0 {
		return "true"
	}
	return strings.Join(p.clauses, "\nand ")
}

// buildPredicate translates the normalized query into SQL.
// Each field contributes one clause; fields the whitelist does not know are
// ignored rather than erroring, matching the parse-side degradation rule
func buildPredicate(d dialect, q query.Query) *predicate {
	q = q.Normalize()
	p := &predicate{d: d}

	// deterministic clause order keeps generated SQL stable for logs
	fields := make([]string, 0, len(q.Filters))
	for f := range q.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		col, ok := filterColumns[field]
		if !ok {
			continue
		}
		f := q.Filters[field]
		switch f.Kind {
		case query.KindDiscrete:
			p.addDiscrete(col, f)
		case query.KindText:
			p.addText(col, f.Text)
		case query.KindRange:
			p.addRange(col, f)
		}
	}

	if q.Search != "" {
		p.addSearch(q.Search)
	}
	return p
}

func (p *predicate) addDiscrete(col string, f query.Filter) {
	if multiValueColumns[col] {
		p.addLabelSet(col, f)
		return
	}
	if p.d == dialectCH {
		p.clauses = append(p.clauses, fmt.Sprintf("%s in %s", col, p.ph(f.Values)))
		return
	}
	p.clauses = append(p.clauses, fmt.Sprintf("%s = any(%s)", col, p.ph(f.Values)))
}

// addLabelSet handles comma-delimited label columns under the three modes
func (p *predicate) addLabelSet(col string, f query.Filter) {
	if p.d == dialectCH {
		arr := fmt.Sprintf("arrayMap(x -> trim(x), splitByChar(',', coalesce(%s, '')))", col)
		sel := p.ph(f.Values)
		switch f.Mode {
		case query.ModeAtLeast:
			p.clauses = append(p.clauses, fmt.Sprintf("hasAll(%s, %s)", arr, sel))
		case query.ModeExact:
			p.clauses = append(p.clauses,
				fmt.Sprintf("hasAll(%s, %s) and length(arrayFilter(x -> x != '', %s)) = %s", arr, sel, arr, p.ph(len(f.Values))))
		default:
			p.clauses = append(p.clauses, fmt.Sprintf("hasAny(%s, %s)", arr, sel))
		}
		return
	}

	arr := fmt.Sprintf(`regexp_split_to_array(coalesce(%s, ''), '\s*,\s*')`, col)
	sel := p.ph(f.Values) + "::text[]"
	switch f.Mode {
	case query.ModeAtLeast:
		p.clauses = append(p.clauses, fmt.Sprintf("%s @> %s", arr, sel))
	case query.ModeExact:
		p.clauses = append(p.clauses,
			fmt.Sprintf("%s @> %s and cardinality(array_remove(%s, '')) = %s", arr, sel, arr, p.ph(len(f.Values))))
	default:
		p.clauses = append(p.clauses, fmt.Sprintf("%s && %s", arr, sel))
	}
}

func (p *predicate) addText(col, text string) {
	if p.d == dialectCH {
		p.clauses = append(p.clauses, fmt.Sprintf("positionCaseInsensitive(coalesce(%s, ''), %s) > 0", col, p.ph(text)))
		return
	}
	p.clauses = append(p.clauses, fmt.Sprintf("%s::text ilike '%%' || %s || '%%'", col, p.ph(text)))
}

// addRange emits (range OR exact); bounds are optional and independent.
// Date columns take unix-second bounds so filter values and row values
// compare on one axis, same as the engine
func (p *predicate) addRange(col string, f query.Filter) {
	expr := col
	if dateColumns[col] {
		if p.d == dialectCH {
			expr = fmt.Sprintf("toUnixTimestamp(toDateTime(%s))", col)
		} else {
			expr = fmt.Sprintf("extract(epoch from %s::timestamp)", col)
		}
	}

	var parts []string
	var bounds []string
	if f.Min != nil {
		bounds = append(bounds, fmt.Sprintf("%s >= %s", expr, p.ph(*f.Min)))
	}
	if f.Max != nil {
		bounds = append(bounds, fmt.Sprintf("%s <= %s", expr, p.ph(*f.Max)))
	}
	if len(bounds) > 0 {
		parts = append(parts, "("+strings.Join(bounds, " and ")+")")
	}
	for _, e := range f.Exact {
		parts = append(parts, fmt.Sprintf("%s = %s", expr, p.ph(e)))
	}
	if len(parts) == 0 {
		return
	}
	p.clauses = append(p.clauses, "("+strings.Join(parts, " or ")+")")
}

func (p *predicate) addSearch(term string) {
	if p.d == dialectCH {
		parts := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			parts = append(parts, fmt.Sprintf("positionCaseInsensitive(coalesce(%s, ''), %s) > 0", col, p.ph(term)))
		}
		p.clauses = append(p.clauses, "("+strings.Join(parts, " or ")+")")
		return
	}

	needle := p.ph("%" + term + "%")
	parts := make([]string, 0, len(searchColumns))
	for _, col := range searchColumns {
		parts = append(parts, fmt.Sprintf("%s::text ilike %s", col, needle))
	}
	p.clauses = append(p.clauses, "("+strings.Join(parts, " or ")+")")
}

// orderBy renders the ORDER BY clause. Unknown sort columns fall back to the
// natural order; nulls always sort last; id breaks ties so pagination is
// reproducible
func orderBy(spec *query.SortSpec) string {
	if spec == nil {
		return "order by created_at desc nulls last, id asc"
	}
	col, ok := filterColumns[spec.Column]
	if !ok {
		return "order by created_at desc nulls last, id asc"
	}
	dir := "asc"
	if spec.Direction == query.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("order by %s %s nulls last, id asc", col, dir)
}
