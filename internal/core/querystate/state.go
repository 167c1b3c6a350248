// Package querystate is the per-view state machine that owns the live
// canonical query. A pure transition core turns events into new state plus
// side effects; the shell in controller.go executes those effects (query
// fan-out, address-bar rewrite, search debounce) and feeds results back as
// events. The request-generation counter lives in the pure core so the
// race-sensitive logic is testable without goroutines
package querystate

import (
	"docketlens/internal/core/engine"
	"docketlens/internal/core/query"
)

// Piece names one independently fetched slice of view state
type Piece string

// Fetch pieces
const (
	PieceRows         Piece = "rows"
	PieceStats        Piece = "stats"
	PieceDedupedStats Piece = "dedupedStats"
)

// SeriesVariant is one of the four time-series fetches: date field crossed
// with the duplicate toggle
type SeriesVariant struct {
	DateField         string
	IncludeDuplicates bool
}

// Piece derives the piece name, which doubles as the cache op tag
func (v SeriesVariant) Piece() Piece {
	suffix := ":deduped"
	if v.IncludeDuplicates {
		suffix = ":raw"
	}
	return Piece("timeseries:" + v.DateField + suffix)
}

// SeriesVariants lists the four chart fetches dispatched on every execution
var SeriesVariants = []SeriesVariant{
	{DateField: "posted_date", IncludeDuplicates: true},
	{DateField: "posted_date", IncludeDuplicates: false},
	{DateField: "received_date", IncludeDuplicates: true},
	{DateField: "received_date", IncludeDuplicates: false},
}

// pieceCount is rows + stats + dedupedStats + the series variants
func pieceCount() int { return 3 + len(SeriesVariants) }

// State is the visible state of one browsing view.
// Rows/Stats/Series always reflect a single query snapshot; on failure the
// last known good data stays and the piece's error is set alongside
type State struct {
	Query       query.Query
	SearchInput string

	// Generation identifies the newest dispatched execution; results
	// carrying an older generation are discarded on arrival
	Generation uint64

	// Pending counts in-flight pieces of the current generation
	Pending int

	Rows         *engine.ResultPage
	Stats        *engine.StanceCounts
	DedupedStats *engine.StanceCounts
	Series       map[Piece][]engine.TimeBucket
	Errs         map[Piece]string

	initialized bool
}

// Loading reports whether any piece of the current generation is in flight
func (s State) Loading() bool { return s.Pending > 0 }

// Err returns the error recorded for a piece, empty when healthy
func (s State) Err(p Piece) string { return s.Errs[p] }

func (s State) cloneSeries() map[Piece][]engine.TimeBucket {
	out := make(map[Piece][]engine.TimeBucket, len(s.Series))
	for k, v := range s.Series {
		out[k] = v
	}
	return out
}

func (s State) cloneErrs() map[Piece]string {
	out := make(map[Piece]string, len(s.Errs))
	for k, v := range s.Errs {
		out[k] = v
	}
	return out
}
