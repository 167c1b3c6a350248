// Package service contains the comments query execution workflows
package service

import (
	"context"
	"strings"
	"time"

	"docketlens/internal/core/cache"
	"docketlens/internal/core/query"
	"docketlens/internal/modkit/repokit"
	"docketlens/internal/platform/config"
	perr "docketlens/internal/platform/errors"
	"docketlens/internal/services/api/comments/domain"
	"docketlens/internal/services/api/comments/repo"
)

// Service is the full comments surface: rows, aggregates, series, export
// and cache administration
type Service interface {
	domain.ServicePort
	domain.StatsPort
	domain.AdminPort
}

// Options carry the per-operation cache TTLs.
// The dataset refreshes at most daily, so day-order TTLs are the default
type Options struct {
	RowsTTL   time.Duration
	StatsTTL  time.Duration
	SeriesTTL time.Duration
}

// FromConfig reads TTLs from a CACHE_* config view (seconds)
func FromConfig(cfg config.Conf) Options {
	return Options{
		RowsTTL:   time.Duration(cfg.MayInt("ROWS_TTL_SECONDS", 86400)) * time.Second,
		StatsTTL:  time.Duration(cfg.MayInt("STATS_TTL_SECONDS", 86400)) * time.Second,
		SeriesTTL: time.Duration(cfg.MayInt("SERIES_TTL_SECONDS", 86400)) * time.Second,
	}
}

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	// series answers time-series scans; defaults to the PG repo and is
	// swapped for the clickhouse mirror when that seam is configured
	series repo.SeriesReader

	cache *cache.Cache
	opts  Options
}

// Option tunes the service
type Option func(*Svc)

// WithSeriesReader routes time-series scans through an alternate reader
func WithSeriesReader(sr repo.SeriesReader) Option {
	return func(s *Svc) {
		if sr != nil {
			s.series = sr
		}
	}
}

// New creates a comments service. The cache is injected, never global,
// so tests get isolated instances
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], c *cache.Cache, opts Options, extra ...Option) *Svc {
	if db == nil {
		panic("comments.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("comments.Service requires a non nil Repo binder")
	}
	if c == nil {
		panic("comments.Service requires a non nil cache")
	}
	s := &Svc{Repo: binder.Bind(db), binder: binder, db: db, cache: c, opts: opts}
	s.series = s.Repo
	for _, o := range extra {
		o(s)
	}
	return s
}

// Execute runs the canonical query, cache-merged under the "rows" op tag.
// Rows, total and stats in the returned page reflect one query snapshot
func (s *Svc) Execute(ctx context.Context, q query.Query) (domain.Page, error) {
	q = q.Normalize()
	v, err := s.cache.GetOrCompute(ctx, q.CacheKey("rows"), s.opts.RowsTTL, func(ctx context.Context) (any, error) {
		return s.fetchPage(ctx, q)
	})
	if err != nil {
		return domain.Page{}, err
	}
	return v.(domain.Page), nil
}

func (s *Svc) fetchPage(ctx context.Context, q query.Query) (domain.Page, error) {
	rows, total, err := s.Repo.List(ctx, q)
	if err != nil {
		return domain.Page{}, perr.Wrapf(err, perr.ErrorCodeDB, "list comments")
	}
	agg, err := s.Repo.Aggregate(ctx, q)
	if err != nil {
		return domain.Page{}, perr.Wrapf(err, perr.ErrorCodeDB, "aggregate comments")
	}

	page := domain.Page{
		Rows:          make([]domain.Comment, 0, len(rows)),
		TotalMatching: total,
		TotalPages:    totalPages(total, q.Page.Size),
		Stats:         toCounts(agg),
	}
	for _, r := range rows {
		page.Rows = append(page.Rows, toComment(r))
	}
	return page, nil
}

// Aggregate returns stance counts for the whole filtered set.
// The key is unpaged: stats must not vary with pagination
func (s *Svc) Aggregate(ctx context.Context, q query.Query) (domain.StanceCounts, error) {
	key := q.Unpaged().CacheKey("stats")
	v, err := s.cache.GetOrCompute(ctx, key, s.opts.StatsTTL, func(ctx context.Context) (any, error) {
		agg, err := s.Repo.Aggregate(ctx, q)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "aggregate comments")
		}
		return toCounts(agg), nil
	})
	if err != nil {
		return domain.StanceCounts{}, err
	}
	return v.(domain.StanceCounts), nil
}

// DedupedAggregate is Aggregate after collapsing duplicate submissions to
// one unit per lookup group
func (s *Svc) DedupedAggregate(ctx context.Context, q query.Query) (domain.StanceCounts, error) {
	key := q.Unpaged().CacheKey("dedupedStats")
	v, err := s.cache.GetOrCompute(ctx, key, s.opts.StatsTTL, func(ctx context.Context) (any, error) {
		agg, err := s.Repo.DedupedAggregate(ctx, q)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "deduped aggregate")
		}
		return toCounts(agg), nil
	})
	if err != nil {
		return domain.StanceCounts{}, err
	}
	return v.(domain.StanceCounts), nil
}

// TimeSeries returns day-bucketed stance counts. The four variants
// (date field x duplicate toggle) cache independently and may be fetched
// in parallel
func (s *Svc) TimeSeries(
	ctx context.Context,
	q query.Query,
	dateField string,
	includeDuplicates bool,
) ([]domain.TimeBucket, error) {
	key := q.Unpaged().CacheKey(seriesOp(dateField, includeDuplicates))
	v, err := s.cache.GetOrCompute(ctx, key, s.opts.SeriesTTL, func(ctx context.Context) (any, error) {
		rows, err := s.series.TimeSeries(ctx, q, dateField, includeDuplicates)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "time series")
		}
		out := make([]domain.TimeBucket, 0, len(rows))
		for _, r := range rows {
			out = append(out, domain.TimeBucket{Date: r.Day, For: r.For, Against: r.Against, Neutral: r.Neutral})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.TimeBucket), nil
}

func seriesOp(dateField string, includeDuplicates bool) string {
	suffix := ":deduped"
	if includeDuplicates {
		suffix = ":raw"
	}
	return "timeseries:" + dateField + suffix
}

// ExportCSV serializes the whole filtered, sorted set; not cached because
// payloads are large and export is rare relative to browsing
func (s *Svc) ExportCSV(ctx context.Context, q query.Query) ([]byte, error) {
	rows, err := s.Repo.ListAll(ctx, q)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "export comments")
	}
	records := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		records = append(records, map[string]any(toComment(r).AsRow()))
	}
	return MarshalCSV(exportColumns, records), nil
}

// Invalidate purges cached results whose op tag matches scope ("all"
// clears everything). Called after any write to the underlying store
func (s *Svc) Invalidate(_ context.Context, scope string) int {
	if scope == "" || scope == "all" {
		n := s.cache.Len()
		s.cache.Clear()
		return n
	}
	return s.cache.DeleteByPattern(func(key string) bool {
		return strings.HasPrefix(key, scope)
	})
}

func totalPages(total int64, size int) int {
	if total == 0 || size < 1 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func toCounts(r repo.RowStance) domain.StanceCounts {
	return domain.StanceCounts{Total: r.Total, For: r.For, Against: r.Against, Neutral: r.Neutral}
}

func toComment(r repo.RowComment) domain.Comment {
	return domain.Comment{
		ID:              r.ID,
		Title:           r.Title,
		Comment:         r.Comment,
		Organization:    r.Organization,
		City:            r.City,
		State:           r.State,
		Category:        r.Category,
		Stance:          r.Stance,
		Themes:          r.Themes,
		PostedDate:      r.PostedDate,
		ReceivedDate:    r.ReceivedDate,
		LookupID:        r.LookupID,
		AttachmentCount: r.AttachmentCount,
		CreatedAt:       r.CreatedAt,
	}
}
