// Package cpumod exposes aggregate CPU time counters from the kernel.
// No instance domain: one value per metric.
package cpumod

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/module"
)

func init() {
	module.Register("cpu", New)
}

var defs = []module.MetricDef{
	{Name: "cpu.user", Type: "counter", Unit: "seconds", Help: "Time spent in user mode."},
	{Name: "cpu.system", Type: "counter", Unit: "seconds", Help: "Time spent in system mode."},
	{Name: "cpu.idle", Type: "counter", Unit: "seconds", Help: "Time spent idle."},
	{Name: "cpu.iowait", Type: "counter", Unit: "seconds", Help: "Time spent waiting for I/O."},
	{Name: "cpu.nice", Type: "counter", Unit: "seconds", Help: "Time spent in user mode at low priority."},
	{Name: "cpu.irq", Type: "counter", Unit: "seconds", Help: "Time spent servicing interrupts."},
	{Name: "cpu.softirq", Type: "counter", Unit: "seconds", Help: "Time spent servicing soft interrupts."},
	{Name: "cpu.steal", Type: "counter", Unit: "seconds", Help: "Time stolen by the hypervisor."},
}

// Module reads /proc/stat style CPU times through gopsutil.
type Module struct {
	log *zap.Logger

	// sample is swappable for tests.
	sample func() (cpu.TimesStat, error)
}

// New builds the cpu module.
func New(o module.Options) (module.Module, error) {
	return &Module{log: o.Logger, sample: sampleTimes}, nil
}

func sampleTimes() (cpu.TimesStat, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, fmt.Errorf("no aggregate cpu times reported")
	}
	return times[0], nil
}

func (m *Module) Metrics() (bool, []module.MetricDef) { return false, defs }

func (m *Module) RegisterInstanceHelpers(*module.InstanceTable) {}

// Compile probes the kernel interface once; an unreadable CPU clock is a
// systemic problem, not a per-call one.
func (m *Module) Compile() error {
	if _, err := m.sample(); err != nil {
		return fmt.Errorf("cpu times unavailable: %w", err)
	}
	return nil
}

func (m *Module) Refresh() (map[int]string, error) { return nil, nil }

func (m *Module) Fetch(item, inst int) (module.FetchResult, error) {
	times, err := m.sample()
	if err != nil {
		return module.FetchResult{}, err
	}
	switch item {
	case 0:
		return module.OKValue(times.User), nil
	case 1:
		return module.OKValue(times.System), nil
	case 2:
		return module.OKValue(times.Idle), nil
	case 3:
		return module.OKValue(times.Iowait), nil
	case 4:
		return module.OKValue(times.Nice), nil
	case 5:
		return module.OKValue(times.Irq), nil
	case 6:
		return module.OKValue(times.Softirq), nil
	case 7:
		return module.OKValue(times.Steal), nil
	default:
		return module.NoSuchMetric(), nil
	}
}

func (m *Module) Cleanup() error { return nil }
