package domain

import (
	"context"

	"docketlens/internal/core/query"
)

// ServicePort is the full comments query surface
type ServicePort interface {
	// Execute runs the canonical query and returns one page plus
	// whole-set aggregates
	Execute(ctx context.Context, q query.Query) (Page, error)

	// ExportCSV serializes the entire filtered set (not just the page)
	ExportCSV(ctx context.Context, q query.Query) ([]byte, error)
}

// StatsPort is consumed cross-module by the stats handlers
type StatsPort interface {
	Aggregate(ctx context.Context, q query.Query) (StanceCounts, error)
	DedupedAggregate(ctx context.Context, q query.Query) (StanceCounts, error)
	TimeSeries(ctx context.Context, q query.Query, dateField string, includeDuplicates bool) ([]TimeBucket, error)
}

// AdminPort invalidates cached results after writes to the backing store
type AdminPort interface {
	Invalidate(ctx context.Context, scope string) int
}
