package module

import (
	"docketlens/internal/services/api/comments/domain"
)

// Ports are the comments capabilities other modules consume: the stats
// module reads aggregates, the admin module purges cached results
type Ports struct {
	Stats domain.StatsPort
	Admin domain.AdminPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
