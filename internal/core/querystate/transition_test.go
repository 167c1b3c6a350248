package querystate

import (
	"testing"

	"docketlens/internal/core/engine"
	"docketlens/internal/core/query"
)

func mounted(t *testing.T, params map[string]string) (State, uint64) {
	t.Helper()
	s, effects := Transition(State{}, NavigationObserved{Params: params})
	if len(effects) != 1 {
		t.Fatalf("mount effects = %d, want a single fetch", len(effects))
	}
	if _, ok := effects[0].(FetchEffect); !ok {
		t.Fatalf("mount must fetch, got %T", effects[0])
	}
	return s, s.Generation
}

func TestMountParsesAndFetchesWithoutURLWrite(t *testing.T) {
	s, _ := mounted(t, map[string]string{"filter_stance": `["For"]`, "page": "3"})
	if s.Query.Page.Page != 3 {
		t.Fatalf("page = %d", s.Query.Page.Page)
	}
	if _, ok := s.Query.Filters["stance"]; !ok {
		t.Fatalf("filters not adopted from params")
	}
	if !s.Loading() {
		t.Fatalf("mount must mark pieces pending")
	}
}

func TestFilterChangeResetsPageAndWritesURL(t *testing.T) {
	s, gen := mounted(t, map[string]string{"page": "5"})

	s, effects := Transition(s, FiltersSet{Filters: query.FilterSet{"stance": query.Discrete("For")}})
	if s.Generation != gen+1 {
		t.Fatalf("generation = %d, want %d", s.Generation, gen+1)
	}
	if s.Query.Page.Page != 1 {
		t.Fatalf("filter change must reset to page 1, got %d", s.Query.Page.Page)
	}
	var fetched, wrote bool
	for _, e := range effects {
		switch eff := e.(type) {
		case FetchEffect:
			fetched = true
			if eff.Generation != s.Generation {
				t.Fatalf("fetch stamped with wrong generation")
			}
		case WriteURLEffect:
			wrote = true
			if _, ok := eff.Params["filter_stance"]; !ok {
				t.Fatalf("url params missing filter: %v", eff.Params)
			}
		}
	}
	if !fetched || !wrote {
		t.Fatalf("expected fetch + url write, got %v", effects)
	}
}

func TestPagingDoesNotResetPage(t *testing.T) {
	s, _ := mounted(t, nil)
	s, _ = Transition(s, PageSet{Page: 4})
	if s.Query.Page.Page != 4 {
		t.Fatalf("page = %d", s.Query.Page.Page)
	}
	s, _ = Transition(s, PageSizeSet{Size: 50})
	if s.Query.Page.Page != 4 || s.Query.Page.Size != 50 {
		t.Fatalf("page size change must keep the page: %+v", s.Query.Page)
	}
}

func TestIdenticalCommitCoalesces(t *testing.T) {
	s, _ := mounted(t, map[string]string{"filter_stance": `["For"]`})

	next, effects := Transition(s, FiltersSet{Filters: query.FilterSet{"stance": query.Discrete("For")}})
	if next.Generation != s.Generation || len(effects) != 0 {
		t.Fatalf("unchanged query must not re-execute: gen %d -> %d, effects %v",
			s.Generation, next.Generation, effects)
	}
}

func TestSearchDebounceLifecycle(t *testing.T) {
	s, gen := mounted(t, nil)

	s, effects := Transition(s, SearchTyped{Term: "sch"})
	if len(effects) != 1 {
		t.Fatalf("keystroke effects = %v", effects)
	}
	if _, ok := effects[0].(DebounceEffect); !ok {
		t.Fatalf("keystroke must only arm the debounce, got %T", effects[0])
	}
	if s.Generation != gen {
		t.Fatalf("keystroke must not commit")
	}

	// a newer keystroke arrives before the first timer fires
	s, _ = Transition(s, SearchTyped{Term: "schedule"})
	s, effects = Transition(s, DebounceElapsed{Term: "sch"})
	if len(effects) != 0 || s.Query.Search != "" {
		t.Fatalf("superseded debounce must be ignored")
	}

	s, effects = Transition(s, DebounceElapsed{Term: "schedule"})
	if s.Query.Search != "schedule" || s.Generation != gen+1 {
		t.Fatalf("debounce commit failed: %+v", s.Query)
	}
	if len(effects) != 2 {
		t.Fatalf("commit must fetch and write url, got %v", effects)
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	s, _ := mounted(t, nil)
	g1 := s.Generation

	// a newer query is committed before g1 resolves
	s, _ = Transition(s, FiltersSet{Filters: query.FilterSet{"stance": query.Discrete("Against")}})
	g2 := s.Generation
	if g2 <= g1 {
		t.Fatalf("generations must increase")
	}

	late := &engine.ResultPage{TotalMatching: 999}
	s, _ = Transition(s, FetchResolved{Generation: g1, Piece: PieceRows, Rows: late})
	if s.Rows != nil {
		t.Fatalf("stale rows applied to visible state")
	}

	fresh := &engine.ResultPage{TotalMatching: 7}
	s, _ = Transition(s, FetchResolved{Generation: g2, Piece: PieceRows, Rows: fresh})
	if s.Rows == nil || s.Rows.TotalMatching != 7 {
		t.Fatalf("current-generation rows not applied: %+v", s.Rows)
	}
}

func TestFailureKeepsLastKnownGoodRows(t *testing.T) {
	s, _ := mounted(t, nil)
	good := &engine.ResultPage{TotalMatching: 3}
	s, _ = Transition(s, FetchResolved{Generation: s.Generation, Piece: PieceRows, Rows: good})

	s, _ = Transition(s, PageSet{Page: 2})
	s, _ = Transition(s, FetchFailed{Generation: s.Generation, Piece: PieceRows, Err: "pg: connection refused"})

	if s.Rows == nil || s.Rows.TotalMatching != 3 {
		t.Fatalf("failure must not corrupt previously displayed rows")
	}
	if s.Err(PieceRows) == "" {
		t.Fatalf("failure must surface an error state")
	}

	// next successful resolve clears the error
	s, _ = Transition(s, FetchResolved{Generation: s.Generation, Piece: PieceRows, Rows: good})
	if s.Err(PieceRows) != "" {
		t.Fatalf("recovery must clear the piece error")
	}
}

func TestPiecesResolveIndependently(t *testing.T) {
	s, _ := mounted(t, nil)
	gen := s.Generation
	start := s.Pending

	s, _ = Transition(s, FetchFailed{Generation: gen, Piece: PieceStats, Err: "boom"})
	stats := engine.StanceCounts{Total: 5}
	s, _ = Transition(s, FetchResolved{Generation: gen, Piece: PieceDedupedStats, Stats: &stats})

	if s.Pending != start-2 {
		t.Fatalf("pending = %d, want %d", s.Pending, start-2)
	}
	if s.DedupedStats == nil || s.DedupedStats.Total != 5 {
		t.Fatalf("sibling failure must not block other pieces")
	}
}

func TestSeriesPieceNames(t *testing.T) {
	seen := map[Piece]bool{}
	for _, v := range SeriesVariants {
		seen[v.Piece()] = true
	}
	if len(seen) != 4 {
		t.Fatalf("series variants must have distinct pieces: %v", seen)
	}
	if !seen["timeseries:posted_date:raw"] || !seen["timeseries:received_date:deduped"] {
		t.Fatalf("unexpected piece names: %v", seen)
	}
}
