package service

import (
	"context"

	"docketlens/internal/core/engine"
	"docketlens/internal/core/query"
	"docketlens/internal/core/querystate"
	"docketlens/internal/services/api/comments/domain"
)

// Executor adapts the comments service to the query state controller's
// fetch port, translating domain DTOs into the engine's row shapes
type Executor struct{ Svc Service }

var _ querystate.Executor = Executor{}

// NewExecutor wraps a comments service for use by a querystate.Controller
func NewExecutor(svc Service) Executor { return Executor{Svc: svc} }

func (e Executor) Rows(ctx context.Context, q query.Query) (engine.ResultPage, error) {
	page, err := e.Svc.Execute(ctx, q)
	if err != nil {
		return engine.ResultPage{}, err
	}
	out := engine.ResultPage{
		Rows:          make([]engine.Row, 0, len(page.Rows)),
		TotalMatching: page.TotalMatching,
		TotalPages:    page.TotalPages,
		Stats:         toEngineCounts(page.Stats),
	}
	for _, c := range page.Rows {
		out.Rows = append(out.Rows, c.AsRow())
	}
	if page.DedupedStats != nil {
		st := toEngineCounts(*page.DedupedStats)
		out.DedupedStats = &st
	}
	return out, nil
}

func (e Executor) Stats(ctx context.Context, q query.Query) (engine.StanceCounts, error) {
	st, err := e.Svc.Aggregate(ctx, q)
	if err != nil {
		return engine.StanceCounts{}, err
	}
	return toEngineCounts(st), nil
}

func (e Executor) DedupedStats(ctx context.Context, q query.Query) (engine.StanceCounts, error) {
	st, err := e.Svc.DedupedAggregate(ctx, q)
	if err != nil {
		return engine.StanceCounts{}, err
	}
	return toEngineCounts(st), nil
}

func (e Executor) Series(
	ctx context.Context,
	q query.Query,
	dateField string,
	includeDuplicates bool,
) ([]engine.TimeBucket, error) {
	buckets, err := e.Svc.TimeSeries(ctx, q, dateField, includeDuplicates)
	if err != nil {
		return nil, err
	}
	out := make([]engine.TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, engine.TimeBucket{Date: b.Date, For: b.For, Against: b.Against, Neutral: b.Neutral})
	}
	return out, nil
}

func toEngineCounts(c domain.StanceCounts) engine.StanceCounts {
	return engine.StanceCounts{Total: c.Total, For: c.For, Against: c.Against, Neutral: c.Neutral}
}
