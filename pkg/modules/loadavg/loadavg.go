// Package loadavg exposes the 1/5/15 minute run-queue averages.
package loadavg

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/module"
)

func init() {
	module.Register("loadavg", New)
}

var defs = []module.MetricDef{
	{Name: "load.1min", Type: "gauge", Unit: "none", Help: "1 minute load average."},
	{Name: "load.5min", Type: "gauge", Unit: "none", Help: "5 minute load average."},
	{Name: "load.15min", Type: "gauge", Unit: "none", Help: "15 minute load average."},
}

type Module struct {
	log    *zap.Logger
	sample func() (*load.AvgStat, error)
}

func New(o module.Options) (module.Module, error) {
	return &Module{log: o.Logger, sample: load.Avg}, nil
}

func (m *Module) Metrics() (bool, []module.MetricDef) { return false, defs }

func (m *Module) RegisterInstanceHelpers(*module.InstanceTable) {}

func (m *Module) Compile() error {
	if _, err := m.sample(); err != nil {
		return fmt.Errorf("load averages unavailable: %w", err)
	}
	return nil
}

func (m *Module) Refresh() (map[int]string, error) { return nil, nil }

func (m *Module) Fetch(item, inst int) (module.FetchResult, error) {
	avg, err := m.sample()
	if err != nil {
		return module.FetchResult{}, err
	}
	switch item {
	case 0:
		return module.OKValue(avg.Load1), nil
	case 1:
		return module.OKValue(avg.Load5), nil
	case 2:
		return module.OKValue(avg.Load15), nil
	default:
		return module.NoSuchMetric(), nil
	}
}

func (m *Module) Cleanup() error { return nil }
