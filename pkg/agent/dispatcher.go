package agent

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/module"
	"github.com/metric-agent/pkg/telemetry"
)

// ErrUnknownCluster reports a refresh/fetch for a cluster no module
// owns. A correct host never sends one; the dispatcher answers it
// without crashing regardless.
var ErrUnknownCluster = errors.New("unknown cluster id")

// Dispatcher serves the host's two recurring operations. The cluster map
// is read-only here; the only state it mutates are the per-module
// instance tables, each touched exclusively during the single in-flight
// call routed to its module.
type Dispatcher struct {
	reg  *Registry
	host host.Host
	tel  *telemetry.Metrics
	log  *zap.Logger
}

// NewDispatcher wires the dispatcher to its startup-built collaborators.
func NewDispatcher(reg *Registry, h host.Host, tel *telemetry.Metrics, log *zap.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, host: h, tel: tel, log: log}
}

// Refresh re-enumerates one module's instances and pushes the new set to
// the host. A module failure (error or panic) is logged and converted to
// an empty enumeration; it never propagates and never affects other
// modules.
func (d *Dispatcher) Refresh(cluster int) (map[int]string, error) {
	loaded, ok := d.reg.ByCluster(cluster)
	if !ok {
		d.log.Error("refresh for unowned cluster", zap.Int("cluster", cluster))
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, cluster)
	}
	d.tel.RefreshTotal.WithLabelValues(loaded.Desc.Name).Inc()

	instances, err := safeRefresh(loaded.Impl)
	if err != nil {
		d.tel.ModuleErrors.WithLabelValues(loaded.Desc.Name, "refresh").Inc()
		d.log.Warn("module refresh failed",
			zap.String("module", loaded.Desc.Name),
			zap.Int("cluster", cluster),
			zap.Error(err))
		instances = map[int]string{}
	}
	if instances == nil {
		instances = map[int]string{}
	}

	if loaded.Indom != host.NoIndom {
		loaded.Instances.Replace(instances)
		if err := d.host.ReplaceInstances(loaded.Indom, instances); err != nil {
			d.log.Error("instance domain update failed",
				zap.String("module", loaded.Desc.Name),
				zap.Int("indom", loaded.Indom),
				zap.Error(err))
		}
	}
	return instances, nil
}

// Fetch retrieves one metric value for one instance. Expected absence
// comes back through the status channel; a module failure (error or
// panic) is logged and converted to StatusNoValues.
func (d *Dispatcher) Fetch(cluster, item, inst int) module.FetchResult {
	loaded, ok := d.reg.ByCluster(cluster)
	if !ok {
		d.log.Error("fetch for unowned cluster",
			zap.Int("cluster", cluster), zap.Int("item", item))
		return module.NoValues()
	}
	d.tel.FetchTotal.WithLabelValues(loaded.Desc.Name).Inc()

	result, err := safeFetch(loaded.Impl, item, inst)
	if err != nil {
		d.tel.ModuleErrors.WithLabelValues(loaded.Desc.Name, "fetch").Inc()
		d.log.Warn("module fetch failed",
			zap.String("module", loaded.Desc.Name),
			zap.Int("cluster", cluster),
			zap.Int("item", item),
			zap.Int("instance", inst),
			zap.Error(err))
		return module.NoValues()
	}
	return result
}

// safeRefresh keeps a panicking module from taking the dispatcher down.
func safeRefresh(m module.Module) (instances map[int]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			instances, err = nil, fmt.Errorf("module panic: %v", r)
		}
	}()
	return m.Refresh()
}

func safeFetch(m module.Module, item, inst int) (result module.FetchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = module.FetchResult{}, fmt.Errorf("module panic: %v", r)
		}
	}()
	return m.Fetch(item, inst)
}
