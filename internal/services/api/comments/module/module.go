// Package module wires comments into the API using modkit
package module

import (
	"net/http"

	modkit "docketlens/internal/modkit"
	"docketlens/internal/modkit/httpkit"
	str "docketlens/internal/platform/strings"
	chttp "docketlens/internal/services/api/comments/http"
	crepo "docketlens/internal/services/api/comments/repo"
	csvc "docketlens/internal/services/api/comments/service"
)

// Module implements the comments module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc csvc.Service
}

// New constructs the comments module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("comments"),
		modkit.WithPrefix("/comments"),
	}, opts...)...)

	if deps.Cache == nil {
		panic("comments module requires a cache instance")
	}

	extra := []csvc.Option{}
	if deps.CH != nil {
		extra = append(extra, csvc.WithSeriesReader(crepo.NewCHSeries(deps.CH)))
	}
	svc := csvc.New(
		deps.PG,
		crepo.NewPG(),
		deps.Cache,
		csvc.FromConfig(deps.Cfg.Prefix("CACHE_")),
		extra...,
	)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Stats: svc, Admin: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		chttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
