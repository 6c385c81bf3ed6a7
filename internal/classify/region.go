package classify

import (
	"log"

	"econwatch/internal/config"
)

// RegionResolver maps source names to their configured region. It is
// built once at startup by inverting the per-region source lists.
type RegionResolver struct {
	bySource      map[string]string
	defaultRegion string
}

// NewRegionResolver builds a resolver from the region configuration.
func NewRegionResolver(cfg *config.Config) *RegionResolver {
	bySource := make(map[string]string)
	for _, region := range cfg.Regions {
		for _, src := range region.Sources {
			bySource[src.Name] = region.Name
		}
	}
	return &RegionResolver{
		bySource:      bySource,
		defaultRegion: cfg.DefaultRegion,
	}
}

// Resolve returns the region a source belongs to. Unknown source names
// resolve to the configured default region; that path usually means a
// config bug, so it is logged.
func (r *RegionResolver) Resolve(sourceName string) string {
	if region, ok := r.bySource[sourceName]; ok {
		return region
	}
	log.Printf("warning: source %q not in any region, defaulting to %q", sourceName, r.defaultRegion)
	return r.defaultRegion
}
