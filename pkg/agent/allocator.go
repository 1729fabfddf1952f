package agent

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/module"
)

// Allocate assigns the metric address space and registers it with the
// host. For each module it asks Metrics() once, allocates an instance
// domain when reported, and registers (cluster, i) for the i'th declared
// metric. Instance helpers are wired only after every module's base
// metrics are registered, so a module may assume the full address space
// exists by then.
func Allocate(reg *Registry, h host.Host, log *zap.Logger) error {
	for _, loaded := range reg.Modules() {
		hasInstances, defs := loaded.Impl.Metrics()
		loaded.HasInstances = hasInstances
		loaded.Defs = defs

		if hasInstances {
			indom, err := h.NewInstanceDomain(loaded.Desc.Cluster)
			if err != nil {
				return fmt.Errorf("instance domain for module %q: %w", loaded.Desc.Name, err)
			}
			loaded.Indom = indom
			loaded.Instances = module.NewInstanceTable()
		}

		for i, def := range defs {
			indom := host.NoIndom
			if def.PerInstance {
				indom = loaded.Indom
			}
			spec := host.MetricSpec{
				Cluster: loaded.Desc.Cluster,
				Item:    i,
				Name:    loaded.Desc.Prefix + "." + def.Name,
				Type:    def.Type,
				Unit:    def.Unit,
				Indom:   indom,
				Help:    def.Help,
			}
			if err := h.RegisterMetric(spec); err != nil {
				return fmt.Errorf("register metrics for module %q: %w", loaded.Desc.Name, err)
			}
		}
		log.Info("metrics registered",
			zap.String("module", loaded.Desc.Name),
			zap.Int("cluster", loaded.Desc.Cluster),
			zap.Int("metrics", len(defs)),
			zap.Bool("instances", hasInstances))
	}

	// Base address space is complete; now hand out the table back-references.
	for _, loaded := range reg.Modules() {
		if loaded.HasInstances {
			loaded.Impl.RegisterInstanceHelpers(loaded.Instances)
		}
	}
	return nil
}
