package repo

import (
	"strings"
	"testing"

	"docketlens/internal/core/query"
)

func TestPredicateEmptyQuery(t *testing.T) {
	p := buildPredicate(dialectPG, query.New())
	if p.where() != "true" {
		t.Fatalf("where = %q", p.where())
	}
	if len(p.args) != 0 {
		t.Fatalf("args = %v", p.args)
	}
}

func TestPredicateDiscrete(t *testing.T) {
	q := query.New().WithFilters(query.FilterSet{"stance": query.Discrete("For", "Against")})
	p := buildPredicate(dialectPG, q)
	if !strings.Contains(p.where(), "stance = any($1)") {
		t.Fatalf("where = %q", p.where())
	}
	vals, ok := p.args[0].([]string)
	if !ok || len(vals) != 2 {
		t.Fatalf("args = %#v", p.args)
	}
}

func TestPredicateUnknownFieldSkipped(t *testing.T) {
	q := query.New().WithFilters(query.FilterSet{
		"stance":             query.Discrete("For"),
		"no_such_column; --": query.Discrete("x"),
		"also.not.a.column":  query.Text("y"),
	})
	p := buildPredicate(dialectPG, q)
	if strings.Contains(p.where(), "no_such") || strings.Contains(p.where(), "--") {
		t.Fatalf("unknown field leaked into SQL: %q", p.where())
	}
	if len(p.args) != 1 {
		t.Fatalf("args = %v", p.args)
	}
}

func TestPredicateThemesModes(t *testing.T) {
	for mode, want := range map[query.Mode]string{
		query.ModeIncludes: "&&",
		query.ModeAtLeast:  "@>",
		query.ModeExact:    "cardinality",
	} {
		q := query.New().WithFilters(query.FilterSet{"themes": query.DiscreteMode(mode, "Merit")})
		p := buildPredicate(dialectPG, q)
		if !strings.Contains(p.where(), want) {
			t.Fatalf("mode %s: where = %q", mode, p.where())
		}
	}
}

func TestPredicateRangeAndExact(t *testing.T) {
	one, five := 1.0, 5.0
	q := query.New().WithFilters(query.FilterSet{"attachment_count": query.Range(&one, &five, 9)})
	p := buildPredicate(dialectPG, q)
	w := p.where()
	for _, frag := range []string{"attachment_count >= $1", "attachment_count <= $2", "attachment_count = $3", " or "} {
		if !strings.Contains(w, frag) {
			t.Fatalf("where = %q missing %q", w, frag)
		}
	}
}

func TestPredicateDateRangeUsesEpoch(t *testing.T) {
	q := query.ParseParams(map[string]string{"filter_posted_date": `{"min":"2025-04-01"}`})
	p := buildPredicate(dialectPG, q)
	if !strings.Contains(p.where(), "extract(epoch from posted_date::timestamp)") {
		t.Fatalf("where = %q", p.where())
	}
}

func TestPredicateSearchSpansColumns(t *testing.T) {
	q := query.New().WithSearch("schedule")
	p := buildPredicate(dialectPG, q)
	w := p.where()
	for _, col := range searchColumns {
		if !strings.Contains(w, col+"::text ilike $1") {
			t.Fatalf("search must cover %s: %q", col, w)
		}
	}
	if p.args[0] != "%schedule%" {
		t.Fatalf("args = %v", p.args)
	}
}

func TestPredicateDeterministicClauseOrder(t *testing.T) {
	q := query.New().WithFilters(query.FilterSet{
		"stance": query.Discrete("For"),
		"state":  query.Discrete("OH"),
		"city":   query.Text("columbus"),
	})
	first := buildPredicate(dialectPG, q).where()
	for i := 0; i < 10; i++ {
		if got := buildPredicate(dialectPG, q).where(); got != first {
			t.Fatalf("clause order unstable:\n%q\n%q", first, got)
		}
	}
}

func TestPredicateCHDialect(t *testing.T) {
	q := query.New().
		WithFilters(query.FilterSet{"stance": query.Discrete("For")}).
		WithSearch("rif")
	p := buildPredicate(dialectCH, q)
	w := p.where()
	if strings.Contains(w, "$") {
		t.Fatalf("ch dialect must not use pg placeholders: %q", w)
	}
	if !strings.Contains(w, "stance in ?") {
		t.Fatalf("where = %q", w)
	}
	// one arg per ? — the search term repeats per column
	if got := strings.Count(w, "?"); got != len(p.args) {
		t.Fatalf("placeholders %d != args %d", got, len(p.args))
	}
}

func TestOrderBy(t *testing.T) {
	if got := orderBy(nil); got != "order by created_at desc nulls last, id asc" {
		t.Fatalf("default order = %q", got)
	}
	got := orderBy(&query.SortSpec{Column: "posted_date", Direction: query.Desc})
	if got != "order by posted_date desc nulls last, id asc" {
		t.Fatalf("got %q", got)
	}
	if got := orderBy(&query.SortSpec{Column: "drop table", Direction: query.Asc}); !strings.Contains(got, "created_at desc") {
		t.Fatalf("unknown sort column must fall back: %q", got)
	}
}
