// Package http provides http transport for comments browsing
package http

import (
	stdhttp "net/http"
	"time"

	"docketlens/internal/core/query"
	"docketlens/internal/modkit/httpkit"
	phttp "docketlens/internal/platform/net/http"
	svc "docketlens/internal/services/api/comments/service"
)

// Register mounts comments endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// one page of rows plus whole-set stats
	httpkit.Get(r, "/", h.list)

	// whole filtered set as a file download; bypasses the JSON envelope
	r.Get("/export.csv", h.exportCSV)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /comments Comments commentsList
// @Summary List comments with filtering, search, sort and pagination
// @Tags Comments
// @Produce json
// @Param search query string false "Free text search"
// @Param sort query string false "Sort column"
// @Param sortDirection query string false "asc or desc"
// @Param page query int false "1-based page"
// @Param pageSize query int false "Rows per page"
// @Success 200 {object} domain.Page "ok"
// @Router /comments [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.Execute(r.Context(), query.FromValues(r.URL.Query()))
}

// swagger:route GET /comments/export.csv Comments commentsExport
// @Summary Export the filtered set as CSV
// @Tags Comments
// @Produce text/csv
// @Success 200 {string} string "csv payload"
// @Router /comments/export.csv [get]
func (h *handlers) exportCSV(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	out, err := h.svc.ExportCSV(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	name := "comments-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write(out)
}
