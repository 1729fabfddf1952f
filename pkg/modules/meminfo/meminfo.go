// Package meminfo exposes system memory gauges.
package meminfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/module"
)

func init() {
	module.Register("meminfo", New)
}

var defs = []module.MetricDef{
	{Name: "mem.total", Type: "gauge", Unit: "bytes", Help: "Total usable memory."},
	{Name: "mem.available", Type: "gauge", Unit: "bytes", Help: "Memory available for new workloads."},
	{Name: "mem.used", Type: "gauge", Unit: "bytes", Help: "Memory in use."},
	{Name: "mem.free", Type: "gauge", Unit: "bytes", Help: "Completely unused memory."},
	{Name: "mem.used_percent", Type: "gauge", Unit: "percent", Help: "Used memory as a share of total."},
}

type Module struct {
	log    *zap.Logger
	sample func() (*mem.VirtualMemoryStat, error)
}

func New(o module.Options) (module.Module, error) {
	return &Module{log: o.Logger, sample: mem.VirtualMemory}, nil
}

func (m *Module) Metrics() (bool, []module.MetricDef) { return false, defs }

func (m *Module) RegisterInstanceHelpers(*module.InstanceTable) {}

func (m *Module) Compile() error {
	if _, err := m.sample(); err != nil {
		return fmt.Errorf("memory statistics unavailable: %w", err)
	}
	return nil
}

func (m *Module) Refresh() (map[int]string, error) { return nil, nil }

func (m *Module) Fetch(item, inst int) (module.FetchResult, error) {
	vm, err := m.sample()
	if err != nil {
		return module.FetchResult{}, err
	}
	switch item {
	case 0:
		return module.OKValue(float64(vm.Total)), nil
	case 1:
		return module.OKValue(float64(vm.Available)), nil
	case 2:
		return module.OKValue(float64(vm.Used)), nil
	case 3:
		return module.OKValue(float64(vm.Free)), nil
	case 4:
		return module.OKValue(vm.UsedPercent), nil
	default:
		return module.NoSuchMetric(), nil
	}
}

func (m *Module) Cleanup() error { return nil }
