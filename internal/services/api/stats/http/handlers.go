// Package http provides http transport for stance stats
package http

import (
	stdhttp "net/http"
	"strconv"

	"docketlens/internal/core/query"
	"docketlens/internal/modkit/httpkit"
	perr "docketlens/internal/platform/errors"
	"docketlens/internal/platform/net/http/bind"
	cdom "docketlens/internal/services/api/comments/domain"
	"docketlens/internal/services/api/stats/domain"
)

// Register mounts stats endpoints on the given router
func Register(r httpkit.Router, p cdom.StatsPort) {
	h := &handlers{port: p}

	// raw and deduplicated stance counts over the filtered set
	httpkit.Get(r, "/stance", h.stance)

	// day-bucketed stance counts, one of the four variants
	httpkit.Get(r, "/timeseries", h.timeseries)
}

type handlers struct{ port cdom.StatsPort }

// swagger:route GET /stats/stance Stats statsStance
// @Summary Stance aggregates over the filtered set
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.StanceOverview "ok"
// @Router /stats/stance [get]
func (h *handlers) stance(r *stdhttp.Request) (any, error) {
	q := query.FromValues(r.URL.Query())
	all, err := h.port.Aggregate(r.Context(), q)
	if err != nil {
		return nil, err
	}
	deduped, err := h.port.DedupedAggregate(r.Context(), q)
	if err != nil {
		return nil, err
	}
	return domain.StanceOverview{All: all, Deduped: deduped}, nil
}

// swagger:route GET /stats/timeseries Stats statsTimeseries
// @Summary Day-bucketed stance counts
// @Tags Stats
// @Produce json
// @Param date_field query string false "posted_date or received_date"
// @Param include_duplicates query bool false "Count duplicate submissions individually"
// @Success 200 {object} domain.SeriesResponse "ok"
// @Router /stats/timeseries [get]
func (h *handlers) timeseries(r *stdhttp.Request) (any, error) {
	vs := r.URL.Query()

	in := cdom.SeriesInput{DateField: vs.Get("date_field")}
	if in.DateField == "" {
		in.DateField = "posted_date"
	}
	if b, err := strconv.ParseBool(vs.Get("include_duplicates")); err == nil {
		in.IncludeDuplicates = b
	}
	if err := bind.Get().Validator.Struct(in); err != nil {
		_, msg := bind.ValidationFieldAndMessage(err)
		return nil, perr.Newf(perr.ErrorCodeValidation, "%s", msg)
	}

	q := query.FromValues(vs)
	buckets, err := h.port.TimeSeries(r.Context(), q, in.DateField, in.IncludeDuplicates)
	if err != nil {
		return nil, err
	}
	return domain.SeriesResponse{
		DateField:         in.DateField,
		IncludeDuplicates: in.IncludeDuplicates,
		Buckets:           buckets,
	}, nil
}
