package repo

import (
	"context"
	"fmt"

	"docketlens/internal/core/query"
	"docketlens/internal/modkit/repokit"
	"docketlens/internal/platform/store"
)

// Repo is the storage collaborator surface the query execution service uses.
// Every method accepts the same canonical query representation
type Repo interface {
	// List returns one page plus the pre-pagination matching count
	List(ctx context.Context, q query.Query) ([]RowComment, int64, error)

	// ListAll returns the whole filtered set in sorted order (CSV export)
	ListAll(ctx context.Context, q query.Query) ([]RowComment, error)

	// Aggregate counts stances over the filtered set
	Aggregate(ctx context.Context, q query.Query) (RowStance, error)

	// DedupedAggregate counts stances after collapsing lookup groups.
	// Collapsing happens after filtering; a group's representative is its
	// earliest row, so repeated calls are deterministic
	DedupedAggregate(ctx context.Context, q query.Query) (RowStance, error)

	// TimeSeries buckets stance counts by day of dateField
	TimeSeries(ctx context.Context, q query.Query, dateField string, includeDuplicates bool) ([]RowBucket, error)
}

// RowComment is a comment row scanned from the database
type RowComment struct {
	ID              string
	Title           string
	Comment         string
	Organization    string
	City            string
	State           string
	Category        string
	Stance          string
	Themes          string
	PostedDate      string
	ReceivedDate    string
	LookupID        string
	AttachmentCount int
	CreatedAt       string
}

// RowStance is one aggregate result
type RowStance struct {
	Total   int64
	For     int64
	Against int64
	Neutral int64
}

// RowBucket is one day of a time series
type RowBucket struct {
	Day     string
	For     int64
	Against int64
	Neutral int64
}

const commentCols = `id, coalesce(title, ''), coalesce(comment, ''), coalesce(organization, ''),
coalesce(city, ''), coalesce(state, ''), coalesce(category, ''), coalesce(stance, ''),
coalesce(themes, ''), coalesce(posted_date::text, ''), coalesce(received_date::text, ''),
coalesce(lookup_id, ''), coalesce(attachment_count, 0), coalesce(created_at::text, '')`

const stanceCounts = `count(*),
count(*) filter (where stance = 'For'),
count(*) filter (where stance = 'Against'),
count(*) filter (where stance is null or stance not in ('For', 'Against'))`

// dedupedFrom collapses duplicate submissions to one row per lookup group;
// rows without a group key keep their own identity
const dedupedFrom = `(
select distinct on (coalesce(nullif(lookup_id, ''), id)) stance, posted_date, received_date
from comments
where %s
order by coalesce(nullif(lookup_id, ''), id), created_at asc, id asc
) d`

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) List(ctx context.Context, q query.Query) ([]RowComment, int64, error) {
	q = q.Normalize()
	p := buildPredicate(dialectPG, q)

	countSQL := fmt.Sprintf("select count(*) from comments where %s", p.where())
	total, err := store.Scalar[int64](ctx, r.q, countSQL, p.args...)
	if err != nil {
		return nil, 0, err
	}

	limit := p.ph(q.Page.Size)
	offset := p.ph((q.Page.Page - 1) * q.Page.Size)
	sql := fmt.Sprintf(
		"select %s\nfrom comments\nwhere %s\n%s\nlimit %s offset %s",
		commentCols, p.where(), orderBy(q.Sort), limit, offset,
	)
	rows, err := store.Many(ctx, r.q, scanComment, sql, p.args...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *queries) ListAll(ctx context.Context, q query.Query) ([]RowComment, error) {
	q = q.Normalize()
	p := buildPredicate(dialectPG, q)
	sql := fmt.Sprintf(
		"select %s\nfrom comments\nwhere %s\n%s",
		commentCols, p.where(), orderBy(q.Sort),
	)
	return store.Many(ctx, r.q, scanComment, sql, p.args...)
}

func scanComment(row store.Row) (RowComment, error) {
	var rr RowComment
	err := row.Scan(
		&rr.ID,
		&rr.Title,
		&rr.Comment,
		&rr.Organization,
		&rr.City,
		&rr.State,
		&rr.Category,
		&rr.Stance,
		&rr.Themes,
		&rr.PostedDate,
		&rr.ReceivedDate,
		&rr.LookupID,
		&rr.AttachmentCount,
		&rr.CreatedAt,
	)
	return rr, err
}

func (r *queries) Aggregate(ctx context.Context, q query.Query) (RowStance, error) {
	p := buildPredicate(dialectPG, q)
	sql := fmt.Sprintf("select %s from comments where %s", stanceCounts, p.where())
	var out RowStance
	err := r.q.QueryRow(ctx, sql, p.args...).Scan(&out.Total, &out.For, &out.Against, &out.Neutral)
	return out, err
}

func (r *queries) DedupedAggregate(ctx context.Context, q query.Query) (RowStance, error) {
	p := buildPredicate(dialectPG, q)
	sql := fmt.Sprintf("select %s from %s", stanceCounts, fmt.Sprintf(dedupedFrom, p.where()))
	var out RowStance
	err := r.q.QueryRow(ctx, sql, p.args...).Scan(&out.Total, &out.For, &out.Against, &out.Neutral)
	return out, err
}

func (r *queries) TimeSeries(
	ctx context.Context,
	q query.Query,
	dateField string,
	includeDuplicates bool,
) ([]RowBucket, error) {
	col, ok := map[string]string{"posted_date": "posted_date", "received_date": "received_date"}[dateField]
	if !ok {
		col = "posted_date"
	}

	p := buildPredicate(dialectPG, q)
	from := "comments"
	if !includeDuplicates {
		from = fmt.Sprintf(dedupedFrom, p.where())
	}
	where := p.where()
	if !includeDuplicates {
		// the subquery already applied the predicate
		where = "true"
	}

	sql := fmt.Sprintf(`
select %[1]s::text as day, %[2]s
from %[3]s
where %[4]s and %[1]s is not null
group by day
order by day asc
`, col, stanceCounts, from, where)

	return store.Many(ctx, r.q, func(row store.Row) (RowBucket, error) {
		var rr RowBucket
		var total int64
		err := row.Scan(&rr.Day, &total, &rr.For, &rr.Against, &rr.Neutral)
		return rr, err
	}, sql, p.args...)
}
