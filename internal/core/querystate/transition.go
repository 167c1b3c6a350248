package querystate

import (
	"docketlens/internal/core/engine"
	"docketlens/internal/core/query"
)

// Event is anything that can advance the state machine
type Event interface{ isEvent() }

// NavigationObserved carries the address-bar parameters seen on mount.
// It initializes the query and fetches, but never writes the URL back:
// the address bar already holds this exact state
type NavigationObserved struct{ Params map[string]string }

// FiltersSet replaces the filter set
type FiltersSet struct{ Filters query.FilterSet }

// SearchTyped carries one keystroke's worth of uncommitted search input
type SearchTyped struct{ Term string }

// DebounceElapsed promotes debounced input to the committed search term
type DebounceElapsed struct{ Term string }

// SortSet replaces the sort spec; nil clears it
type SortSet struct{ Sort *query.SortSpec }

// PageSet moves to a 1-based page
type PageSet struct{ Page int }

// PageSizeSet changes the page size
type PageSizeSet struct{ Size int }

// FetchResolved delivers one piece's result. Generation is the value the
// execution was dispatched with; a mismatch means the result is stale
type FetchResolved struct {
	Generation uint64
	Piece      Piece
	Rows       *engine.ResultPage
	Stats      *engine.StanceCounts
	Series     []engine.TimeBucket
}

// FetchFailed delivers one piece's failure, same generation rule
type FetchFailed struct {
	Generation uint64
	Piece      Piece
	Err        string
}

func (NavigationObserved) isEvent() {}
func (FiltersSet) isEvent()         {}
func (SearchTyped) isEvent()        {}
func (DebounceElapsed) isEvent()    {}
func (SortSet) isEvent()            {}
func (PageSet) isEvent()            {}
func (PageSizeSet) isEvent()        {}
func (FetchResolved) isEvent()      {}
func (FetchFailed) isEvent()        {}

// Effect is work the shell performs after a transition
type Effect interface{ isEffect() }

// FetchEffect dispatches the full fan-out for Query, stamped with Generation
type FetchEffect struct {
	Generation uint64
	Query      query.Query
}

// WriteURLEffect rewrites the address bar in place, no reload.
// Intermediate writes may be coalesced; the last one always matches the
// last committed query
type WriteURLEffect struct{ Params map[string]string }

// DebounceEffect (re)arms the search debounce timer for Term
type DebounceEffect struct{ Term string }

func (FetchEffect) isEffect()    {}
func (WriteURLEffect) isEffect() {}
func (DebounceEffect) isEffect() {}

// Transition is the pure core: no I/O, no clocks, no goroutines
func Transition(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case NavigationObserved:
		s.Query = query.ParseParams(e.Params)
		s.SearchInput = s.Query.Search
		s.Generation++
		s.Pending = pieceCount()
		s.Errs = map[Piece]string{}
		s.Series = map[Piece][]engine.TimeBucket{}
		s.initialized = true
		return s, []Effect{FetchEffect{Generation: s.Generation, Query: s.Query}}

	case FiltersSet:
		return commit(s, s.Query.WithFilters(e.Filters), true)

	case SearchTyped:
		s.SearchInput = e.Term
		return s, []Effect{DebounceEffect{Term: e.Term}}

	case DebounceElapsed:
		if e.Term != s.SearchInput {
			// a newer keystroke superseded this timer
			return s, nil
		}
		return commit(s, s.Query.WithSearch(e.Term), true)

	case SortSet:
		return commit(s, s.Query.WithSort(e.Sort), true)

	case PageSet:
		return commit(s, s.Query.WithPage(e.Page), false)

	case PageSizeSet:
		return commit(s, s.Query.WithPageSize(e.Size), false)

	case FetchResolved:
		if e.Generation != s.Generation {
			// stale response, silently discarded
			return s, nil
		}
		return applyResult(s, e), nil

	case FetchFailed:
		if e.Generation != s.Generation {
			return s, nil
		}
		errs := s.cloneErrs()
		errs[e.Piece] = e.Err
		s.Errs = errs
		if s.Pending > 0 {
			s.Pending--
		}
		return s, nil
	}
	return s, nil
}

// commit moves the controller to a new query: filter, search and sort
// changes invalidate the current page and reset it to 1; paging changes do
// not. An unchanged query is a no-op so identical commits coalesce
func commit(s State, next query.Query, resetPage bool) (State, []Effect) {
	if resetPage && next.Page.Page != 1 {
		next = next.WithPage(1)
	}
	if !s.initialized {
		// first render: adopt the state silently, nothing to re-fetch yet
		s.Query = next
		s.SearchInput = next.Search
		return s, nil
	}
	if next.Equal(s.Query) {
		return s, nil
	}
	s.Query = next
	s.SearchInput = next.Search
	s.Generation++
	s.Pending = pieceCount()
	s.Errs = map[Piece]string{}
	return s, []Effect{
		FetchEffect{Generation: s.Generation, Query: next},
		WriteURLEffect{Params: next.Params()},
	}
}

func applyResult(s State, e FetchResolved) State {
	switch e.Piece {
	case PieceRows:
		s.Rows = e.Rows
	case PieceStats:
		s.Stats = e.Stats
	case PieceDedupedStats:
		s.DedupedStats = e.Stats
	default:
		series := s.cloneSeries()
		series[e.Piece] = e.Series
		s.Series = series
	}
	errs := s.cloneErrs()
	delete(errs, e.Piece)
	s.Errs = errs
	if s.Pending > 0 {
		s.Pending--
	}
	return s
}
