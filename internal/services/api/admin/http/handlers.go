// Package http provides http transport for cache administration
package http

import (
	stdhttp "net/http"

	"docketlens/internal/modkit/httpkit"
	cdom "docketlens/internal/services/api/comments/domain"
)

// Register mounts admin endpoints on the given router
func Register(r httpkit.Router, p cdom.AdminPort) {
	h := &handlers{port: p}

	// purge cached query results after a store write
	httpkit.PostJSON[cdom.InvalidateInput](r, "/invalidate", h.invalidate)
}

type handlers struct{ port cdom.AdminPort }

// invalidateResult reports how many entries a purge removed
type invalidateResult struct {
	Scope   string `json:"scope"`
	Removed int    `json:"removed"`
}

// swagger:route POST /admin/invalidate Admin adminInvalidate
// @Summary Invalidate cached query results
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body domain.InvalidateInput true "Scope"
// @Success 200 {object} invalidateResult "ok"
// @Router /admin/invalidate [post]
func (h *handlers) invalidate(r *stdhttp.Request, in cdom.InvalidateInput) (any, error) {
	scope := in.Scope
	if scope == "" {
		scope = "all"
	}
	n := h.port.Invalidate(r.Context(), scope)
	return invalidateResult{Scope: scope, Removed: n}, nil
}
