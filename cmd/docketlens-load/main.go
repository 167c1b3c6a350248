// Command docketlens-load ingests a JSON-lines comments dataset into
// postgres and asks a running API to drop its cached query results
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"docketlens/internal/platform/config"
	"docketlens/internal/platform/logger"
	"docketlens/internal/platform/store"
)

type loadRow struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Comment         string `json:"comment"`
	Organization    string `json:"organization"`
	City            string `json:"city"`
	State           string `json:"state"`
	Category        string `json:"category"`
	Stance          string `json:"stance"`
	Themes          string `json:"themes"`
	PostedDate      string `json:"posted_date"`
	ReceivedDate    string `json:"received_date"`
	LookupID        string `json:"lookup_id"`
	AttachmentCount int    `json:"attachment_count"`
}

const upsertCols = 13

const upsertHead = `insert into comments
(id, title, comment, organization, city, state, category, stance, themes,
posted_date, received_date, lookup_id, attachment_count)
values `

const upsertTail = ` on conflict (id) do update set
title = excluded.title,
comment = excluded.comment,
organization = excluded.organization,
city = excluded.city,
state = excluded.state,
category = excluded.category,
stance = excluded.stance,
themes = excluded.themes,
posted_date = excluded.posted_date,
received_date = excluded.received_date,
lookup_id = excluded.lookup_id,
attachment_count = excluded.attachment_count`

func main() {
	var (
		file       = flag.String("file", "-", "JSON-lines input, - for stdin")
		batch      = flag.Int("batch", 500, "rows per insert statement")
		truncate   = flag.Bool("truncate", false, "truncate comments before loading")
		invalidate = flag.String("invalidate", "", "API base URL to purge after load, e.g. http://localhost:4000")
	)
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("DBURL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(ctx); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	in, err := openInput(*file)
	if err != nil {
		l.Panic().Err(err).Str("file", *file).Msg("open input")
	}
	defer func() { _ = in.Close() }()

	total, skipped, err := load(ctx, st, in, *batch, *truncate)
	if err != nil {
		l.Panic().Err(err).Msg("load failed")
	}
	l.Info().Int("rows", total).Int("skipped", skipped).Msg("load complete")

	if *invalidate != "" {
		if err := purge(ctx, *invalidate); err != nil {
			l.Error().Err(err).Msg("cache purge failed, stale results may be served until TTL")
			os.Exit(1)
		}
		l.Info().Msg("cache purged")
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// load streams the input inside one transaction so a half-read file never
// leaves a half-loaded table
func load(ctx context.Context, st *store.Store, in io.Reader, batchSize int, truncate bool) (int, int, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	total, skipped := 0, 0

	err := st.PG.Tx(ctx, func(q store.RowQuerier) error {
		if truncate {
			if _, err := q.Exec(ctx, "truncate comments"); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}

		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 1<<20), 1<<24)

		pending := make([]loadRow, 0, batchSize)
		line := 0
		for sc.Scan() {
			line++
			raw := bytes.TrimSpace(sc.Bytes())
			if len(raw) == 0 {
				continue
			}
			var row loadRow
			if err := json.Unmarshal(raw, &row); err != nil {
				// a bad line loses that one row, never the batch
				skipped++
				continue
			}
			if strings.TrimSpace(row.ID) == "" {
				row.ID = uuid.NewString()
			}
			pending = append(pending, row)
			if len(pending) == batchSize {
				if err := flush(ctx, q, pending); err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				total += len(pending)
				pending = pending[:0]
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}
		if len(pending) > 0 {
			if err := flush(ctx, q, pending); err != nil {
				return err
			}
			total += len(pending)
		}
		return nil
	})
	return total, skipped, err
}

func flush(ctx context.Context, q store.RowQuerier, rows []loadRow) error {
	var sb strings.Builder
	sb.WriteString(upsertHead)
	args := make([]any, 0, len(rows)*upsertCols)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteByte('(')
		for c := 0; c < upsertCols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			n := i*upsertCols + c + 1
			// date columns arrive as strings; blank means unknown
			switch c {
			case 9, 10:
				fmt.Fprintf(&sb, "nullif($%d, '')::date", n)
			default:
				fmt.Fprintf(&sb, "$%d", n)
			}
		}
		sb.WriteByte(')')
		args = append(args,
			r.ID, r.Title, r.Comment, r.Organization, r.City, r.State, r.Category,
			r.Stance, r.Themes, r.PostedDate, r.ReceivedDate, r.LookupID, r.AttachmentCount,
		)
	}
	sb.WriteString(upsertTail)
	_, err := q.Exec(ctx, sb.String(), args...)
	return err
}

// purge tells a running API instance to drop every cached query result
func purge(ctx context.Context, base string) error {
	url := strings.TrimRight(base, "/") + "/api/v1/admin/invalidate"
	body := bytes.NewBufferString(`{"scope":"all"}`)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invalidate returned %s", resp.Status)
	}
	return nil
}
