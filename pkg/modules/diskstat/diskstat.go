// Package diskstat exposes per-device I/O counters over an instance
// domain: one instance per block device, re-enumerated on every refresh.
package diskstat

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/module"
)

func init() {
	module.Register("disk", New)
}

var defs = []module.MetricDef{
	{Name: "disk.read_bytes", Type: "counter", Unit: "bytes", PerInstance: true, Help: "Bytes read from the device."},
	{Name: "disk.write_bytes", Type: "counter", Unit: "bytes", PerInstance: true, Help: "Bytes written to the device."},
	{Name: "disk.reads", Type: "counter", Unit: "count", PerInstance: true, Help: "Completed read operations."},
	{Name: "disk.writes", Type: "counter", Unit: "count", PerInstance: true, Help: "Completed write operations."},
}

// moduleConfig is the module's own config section.
type moduleConfig struct {
	// IgnoreDevices drops devices from the enumeration by exact name.
	IgnoreDevices []string `mapstructure:"ignore_devices"`
}

// Module tracks block devices. Instance ids are assigned on first sight
// and never reused, so an id stays stable for the process lifetime even
// when a device disappears and returns.
type Module struct {
	log *zap.Logger
	cfg moduleConfig

	sample func() (map[string]disk.IOCountersStat, error)

	ids    map[string]int
	nextID int
	// last holds the counters from the most recent refresh, keyed by
	// device name.
	last  map[string]disk.IOCountersStat
	table *module.InstanceTable
}

// New builds the disk module from its config section.
func New(o module.Options) (module.Module, error) {
	var cfg moduleConfig
	if err := mapstructure.Decode(o.Config, &cfg); err != nil {
		return nil, fmt.Errorf("disk module config: %w", err)
	}
	return &Module{
		log:    o.Logger,
		cfg:    cfg,
		sample: func() (map[string]disk.IOCountersStat, error) { return disk.IOCounters() },
		ids:    make(map[string]int),
		last:   make(map[string]disk.IOCountersStat),
	}, nil
}

func (m *Module) Metrics() (bool, []module.MetricDef) { return true, defs }

func (m *Module) RegisterInstanceHelpers(table *module.InstanceTable) {
	m.table = table
}

func (m *Module) Compile() error {
	if _, err := m.sample(); err != nil {
		return fmt.Errorf("disk I/O counters unavailable: %w", err)
	}
	return nil
}

// Refresh re-enumerates devices and caches their counters for the fetch
// calls that follow.
func (m *Module) Refresh() (map[int]string, error) {
	counters, err := m.sample()
	if err != nil {
		return nil, fmt.Errorf("read disk I/O counters: %w", err)
	}

	m.last = make(map[string]disk.IOCountersStat, len(counters))
	instances := make(map[int]string, len(counters))
	for name, stat := range counters {
		if slices.Contains(m.cfg.IgnoreDevices, name) {
			continue
		}
		id, ok := m.ids[name]
		if !ok {
			id = m.nextID
			m.nextID++
			m.ids[name] = id
		}
		m.last[name] = stat
		instances[id] = name
	}
	return instances, nil
}

func (m *Module) Fetch(item, inst int) (module.FetchResult, error) {
	if m.table == nil {
		return module.NoValues(), nil
	}
	name, ok := m.table.Name(inst)
	if !ok {
		return module.NoSuchInstance(), nil
	}
	stat, ok := m.last[name]
	if !ok {
		return module.NoValues(), nil
	}
	switch item {
	case 0:
		return module.OKValue(float64(stat.ReadBytes)), nil
	case 1:
		return module.OKValue(float64(stat.WriteBytes)), nil
	case 2:
		return module.OKValue(float64(stat.ReadCount)), nil
	case 3:
		return module.OKValue(float64(stat.WriteCount)), nil
	default:
		return module.NoSuchMetric(), nil
	}
}

func (m *Module) Cleanup() error {
	m.last = make(map[string]disk.IOCountersStat)
	return nil
}
