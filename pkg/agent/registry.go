// Package agent is the module-registry-and-dispatch layer: it resolves
// configured descriptors to loaded modules, assigns the metric address
// space, and routes the monitoring host's refresh/fetch calls to the
// owning module with per-call failure isolation.
package agent

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/metric-agent/pkg/config"
	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/module"
)

// ErrModuleNotFound marks a descriptor whose implementation could not be
// resolved or constructed. Fatal at startup.
var ErrModuleNotFound = errors.New("module not found")

// Loaded is one resolved module and its runtime state. Everything except
// the instance table is immutable after startup.
type Loaded struct {
	Desc config.Descriptor
	Impl module.Module

	// Defs is the declaration-ordered metric list; the slice index is
	// the metric's item id.
	Defs         []module.MetricDef
	HasInstances bool
	// Indom is the host-assigned instance-domain id, or host.NoIndom.
	Indom     int
	Instances *module.InstanceTable
}

// Registry owns the loaded modules and the write-once cluster→module
// map. Constructed during startup, injected into the dispatcher, dropped
// at shutdown; there is no ambient global.
type Registry struct {
	modules   []*Loaded
	byCluster map[int]*Loaded
	log       *zap.Logger
}

// LoadModules resolves every descriptor against the implementation
// registry. Each module is constructed with its own configuration
// section and a name-tagged diagnostic sink; it never sees another
// module's configuration.
func LoadModules(descs []config.Descriptor, impls module.Registry, log *zap.Logger) (*Registry, error) {
	reg := &Registry{
		modules:   make([]*Loaded, 0, len(descs)),
		byCluster: make(map[int]*Loaded, len(descs)),
		log:       log,
	}
	for _, desc := range descs {
		factory, ok := impls.Lookup(desc.Implementation)
		if !ok {
			return nil, fmt.Errorf("%w: implementation %q for module %q (known: %v)",
				ErrModuleNotFound, desc.Implementation, desc.Name, impls.Names())
		}
		impl, err := factory(module.Options{
			Name:   desc.Name,
			Config: desc.Options,
			Logger: log.Named(desc.Name),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: implementation %q for module %q: %v",
				ErrModuleNotFound, desc.Implementation, desc.Name, err)
		}
		loaded := &Loaded{Desc: desc, Impl: impl, Indom: host.NoIndom}
		if prev, dup := reg.byCluster[desc.Cluster]; dup {
			return nil, fmt.Errorf("cluster %d claimed by both %q and %q", desc.Cluster, prev.Desc.Name, desc.Name)
		}
		reg.byCluster[desc.Cluster] = loaded
		reg.modules = append(reg.modules, loaded)
		log.Info("module loaded",
			zap.String("module", desc.Name),
			zap.String("implementation", desc.Implementation),
			zap.Int("cluster", desc.Cluster))
	}
	return reg, nil
}

// Modules returns the loaded modules in registration order.
func (r *Registry) Modules() []*Loaded { return r.modules }

// ByCluster returns the module owning a cluster id.
func (r *Registry) ByCluster(cluster int) (*Loaded, bool) {
	loaded, ok := r.byCluster[cluster]
	return loaded, ok
}
