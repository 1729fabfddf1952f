// Package netif exposes per-interface network counters over an instance
// domain: one instance per interface, re-enumerated on every refresh.
package netif

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/module"
)

func init() {
	module.Register("netif", New)
}

var defs = []module.MetricDef{
	{Name: "net.in_bytes", Type: "counter", Unit: "bytes", PerInstance: true, Help: "Bytes received on the interface."},
	{Name: "net.out_bytes", Type: "counter", Unit: "bytes", PerInstance: true, Help: "Bytes sent on the interface."},
	{Name: "net.in_packets", Type: "counter", Unit: "count", PerInstance: true, Help: "Packets received on the interface."},
	{Name: "net.out_packets", Type: "counter", Unit: "count", PerInstance: true, Help: "Packets sent on the interface."},
	{Name: "net.in_errors", Type: "counter", Unit: "count", PerInstance: true, Help: "Receive errors on the interface."},
	{Name: "net.out_errors", Type: "counter", Unit: "count", PerInstance: true, Help: "Transmit errors on the interface."},
}

type moduleConfig struct {
	// IgnoreInterfaces drops interfaces from the enumeration by exact name.
	IgnoreInterfaces []string `mapstructure:"ignore_interfaces"`
}

type Module struct {
	log *zap.Logger
	cfg moduleConfig

	sample func() ([]net.IOCountersStat, error)

	ids    map[string]int
	nextID int
	last   map[string]net.IOCountersStat
	table  *module.InstanceTable
}

func New(o module.Options) (module.Module, error) {
	var cfg moduleConfig
	if err := mapstructure.Decode(o.Config, &cfg); err != nil {
		return nil, fmt.Errorf("netif module config: %w", err)
	}
	return &Module{
		log:    o.Logger,
		cfg:    cfg,
		sample: func() ([]net.IOCountersStat, error) { return net.IOCounters(true) },
		ids:    make(map[string]int),
		last:   make(map[string]net.IOCountersStat),
	}, nil
}

func (m *Module) Metrics() (bool, []module.MetricDef) { return true, defs }

func (m *Module) RegisterInstanceHelpers(table *module.InstanceTable) {
	m.table = table
}

func (m *Module) Compile() error {
	if _, err := m.sample(); err != nil {
		return fmt.Errorf("network counters unavailable: %w", err)
	}
	return nil
}

func (m *Module) Refresh() (map[int]string, error) {
	counters, err := m.sample()
	if err != nil {
		return nil, fmt.Errorf("read network counters: %w", err)
	}

	m.last = make(map[string]net.IOCountersStat, len(counters))
	instances := make(map[int]string, len(counters))
	for _, stat := range counters {
		if slices.Contains(m.cfg.IgnoreInterfaces, stat.Name) {
			continue
		}
		id, ok := m.ids[stat.Name]
		if !ok {
			id = m.nextID
			m.nextID++
			m.ids[stat.Name] = id
		}
		m.last[stat.Name] = stat
		instances[id] = stat.Name
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
		return module.OKValue(float64(stat.BytesRecv)), nil
	case 1:
		return module.OKValue(float64(stat.BytesSent)), nil
	case 2:
		return module.OKValue(float64(stat.PacketsRecv)), nil
	case 3:
		return module.OKValue(float64(stat.PacketsSent)), nil
	case 4:
		return module.OKValue(float64(stat.Errin)), nil
	case 5:
		return module.OKValue(float64(stat.Errout)), nil
	default:
		return module.NoSuchMetric(), nil
	}
}

func (m *Module) Cleanup() error {
	m.last = make(map[string]net.IOCountersStat)
	return nil
}
