package repo

import (
	"context"
	"fmt"

	"docketlens/internal/core/query"
	"docketlens/internal/platform/store"
)

// SeriesReader is the narrow surface the stats path needs; both the PG repo
// and the clickhouse mirror satisfy it
type SeriesReader interface {
	TimeSeries(ctx context.Context, q query.Query, dateField string, includeDuplicates bool) ([]RowBucket, error)
}

// CHSeries answers day-bucketed stance scans from the clickhouse mirror of
// the comments table. Output shape is identical to the Postgres path, so the
// service can prefer it whenever the seam is configured
type CHSeries struct{ ch store.Clickhouse }

// NewCHSeries wraps a clickhouse seam
func NewCHSeries(ch store.Clickhouse) *CHSeries { return &CHSeries{ch: ch} }

func (c *CHSeries) TimeSeries(
	ctx context.Context,
	q query.Query,
	dateField string,
	includeDuplicates bool,
) ([]RowBucket, error) {
	col := "posted_date"
	if dateField == "received_date" {
		col = "received_date"
	}

	p := buildPredicate(dialectCH, q)
	from := "comments"
	where := p.where()
	if !includeDuplicates {
		from = fmt.Sprintf(`(
select stance, posted_date, received_date
from comments
where %s
order by created_at asc, id asc
limit 1 by coalesce(nullif(lookup_id, ''), id)
) d`, where)
		where = "1 = 1"
	}

	sql := fmt.Sprintf(`
select toString(%[1]s) as day,
count() as total,
countIf(stance = 'For') as stance_for,
countIf(stance = 'Against') as stance_against,
countIf(stance != 'For' and stance != 'Against') as stance_neutral
from %[2]s
where %[3]s and %[1]s is not null
group by day
order by day asc
`, col, from, where)

	rows, err := c.ch.Query(ctx, sql, p.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RowBucket
	for rows.Next() {
		var rr RowBucket
		var total int64
		if err := rows.Scan(&rr.Day, &total, &rr.For, &rr.Against, &rr.Neutral); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
