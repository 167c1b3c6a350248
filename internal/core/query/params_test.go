package query

import (
	"reflect"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestParamsRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		q    Query
	}{
		{"empty", New()},
		{
			"discrete filter",
			New().WithFilters(FilterSet{"stance": Discrete("For", "Against")}),
		},
		{
			"discrete with mode",
			New().WithFilters(FilterSet{"themes": DiscreteMode(ModeAtLeast, "Merit", "Due process")}),
		},
		{
			"text filter",
			New().WithFilters(FilterSet{"organization": Text("league of")}),
		},
		{
			"range filter",
			New().WithFilters(FilterSet{"attachment_count": Range(f64(1), f64(5))}),
		},
		{
			"range with exacts only",
			New().WithFilters(FilterSet{"attachment_count": Range(nil, nil, 0)}),
		},
		{
			"search sort page",
			Query{
				Search: "schedule",
				Sort:   &SortSpec{Column: "posted_date", Direction: Desc},
				Page:   PageSpec{Page: 4, Size: 50},
			}.Normalize(),
		},
		{
			"text that looks like json survives",
			New().WithFilters(FilterSet{"title": Text(`["not","a","filter"]`)}),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseParams(tc.q.Params())
			if !reflect.DeepEqual(got, tc.q) {
				t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, tc.q)
			}
		})
	}
}

func TestParamsOrderIndependence(t *testing.T) {
	a := New().WithFilters(FilterSet{"stance": Discrete("For", "Against"), "state": Discrete("OH", "TX")})
	b := New().WithFilters(FilterSet{"state": Discrete("TX", "OH"), "stance": Discrete("Against", "For")})
	if a.Encode() != b.Encode() {
		t.Fatalf("equal queries encode differently:\n %s\n %s", a.Encode(), b.Encode())
	}
	if !a.Equal(b) {
		t.Fatalf("expected Equal to hold")
	}
}

func TestEmptyFilterElision(t *testing.T) {
	q := Query{
		Filters: FilterSet{
			"stance":  Discrete(),
			"title":   Text("   "),
			"count":   Range(nil, nil),
			"blank":   {},
			"present": Discrete("For"),
		},
		Page: PageSpec{Page: 1, Size: DefaultPageSize},
	}
	params := q.Params()
	for _, key := range []string{"filter_stance", "filter_title", "filter_count", "filter_blank"} {
		if _, ok := params[key]; ok {
			t.Fatalf("empty filter %s must not serialize", key)
		}
	}
	if _, ok := params["filter_present"]; !ok {
		t.Fatalf("non-empty filter must serialize")
	}
	if len(q.Normalize().Filters) != 1 {
		t.Fatalf("normalize must drop empty filters, got %d", len(q.Normalize().Filters))
	}
}

func TestNormalizeDedupesDiscreteValues(t *testing.T) {
	q := New().WithFilters(FilterSet{"themes": DiscreteMode(ModeExact, "Merit", "Merit", " Merit ")})
	f := q.Filters["themes"]
	if len(f.Values) != 1 || f.Values[0] != "Merit" {
		t.Fatalf("duplicated selection must collapse: %#v", f.Values)
	}
	// a duplicated selection is the same query as the single one, so exact
	// cardinality checks see one value
	if !q.Equal(New().WithFilters(FilterSet{"themes": DiscreteMode(ModeExact, "Merit")})) {
		t.Fatalf("dedup must not change query identity")
	}
}

func TestDefaultsElided(t *testing.T) {
	params := New().Params()
	if len(params) != 0 {
		t.Fatalf("default query must serialize to no parameters, got %v", params)
	}
}

func TestParseMalformedDegradesPerField(t *testing.T) {
	q := ParseParams(map[string]string{
		"filter_stance":  `["For"]`,
		"filter_broken":  `{"mode":`, // invalid json falls back to raw text
		"filter_useless": `{"unknown":1}`,
		"filter_null":    `null`,
		"page":           "not-a-number",
		"pageSize":       "-3",
		"bogus":          "ignored",
	})
	if _, ok := q.Filters["stance"]; !ok {
		t.Fatalf("well formed sibling filter must survive")
	}
	if f, ok := q.Filters["broken"]; !ok || f.Kind != KindText {
		t.Fatalf("invalid json should degrade to a text filter, got %#v", f)
	}
	if _, ok := q.Filters["useless"]; ok {
		t.Fatalf("object with no usable constraint must be ignored")
	}
	if _, ok := q.Filters["null"]; ok {
		t.Fatalf("json null must be ignored")
	}
	if q.Page.Page != 1 || q.Page.Size != DefaultPageSize {
		t.Fatalf("bad paging params must fall back to defaults, got %+v", q.Page)
	}
}

func TestParseDateBounds(t *testing.T) {
	q := ParseParams(map[string]string{
		"filter_posted_date": `{"min":"2025-04-01","max":"2025-05-01"}`,
	})
	f, ok := q.Filters["posted_date"]
	if !ok || f.Kind != KindRange {
		t.Fatalf("expected a range filter, got %#v", f)
	}
	if f.Min == nil || f.Max == nil || *f.Min >= *f.Max {
		t.Fatalf("date bounds should parse to ordered numerics, got %#v", f)
	}
}

func TestCacheKeyCarriesOpTag(t *testing.T) {
	q := New().WithFilters(FilterSet{"stance": Discrete("For")})
	rows := q.CacheKey("rows")
	stats := q.Unpaged().CacheKey("stats")
	if rows == stats {
		t.Fatalf("op tags must separate cache keys")
	}
	if q.WithPage(3).Unpaged().CacheKey("stats") != stats {
		t.Fatalf("stats keys must not vary with pagination")
	}
}
