// Package api provides the HTTP API for the application
package api

import (
	"docketlens/internal/core/cache"
	"docketlens/internal/platform/config"
	"docketlens/internal/platform/logger"
	phttp "docketlens/internal/platform/net/http"
	"docketlens/internal/platform/store"

	"docketlens/internal/modkit"
	"docketlens/internal/modkit/httpkit"
	"docketlens/internal/modkit/module"
	"docketlens/internal/modkit/swaggerkit"

	adminmod "docketlens/internal/services/api/admin/module"
	commentsmod "docketlens/internal/services/api/comments/module"
	metamod "docketlens/internal/services/api/meta/module"
	statsmod "docketlens/internal/services/api/stats/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Cache          *cache.Cache
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:   opt.Config,
		PG:    opt.Store.PG,
		CH:    opt.Store.CH,
		Cache: opt.Cache,
	}

	// Comments owns the data; construct it first and hand its ports to the
	// read-only stats facade and the admin purge endpoint
	comments := commentsmod.New(deps)
	cports := module.MustPortsOf[commentsmod.Ports](comments)

	mods := []module.Module{
		metamod.New(deps),
		comments,
		statsmod.New(deps, modkit.WithPorts(statsmod.Ports{Comments: cports.Stats})),
		adminmod.New(deps, modkit.WithPorts(adminmod.Ports{Comments: cports.Admin})),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
