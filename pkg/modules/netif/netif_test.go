package netif

import (
	"testing"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metric-agent/pkg/module"
)

func TestRefreshAndFetch(t *testing.T) {
	m, err := New(module.Options{Name: "netif", Config: map[string]any{"ignore_interfaces": []any{"lo"}}})
	require.NoError(t, err)
	mod := m.(*Module)
	mod.sample = func() ([]net.IOCountersStat, error) {
		return []net.IOCountersStat{
			{Name: "lo", BytesRecv: 1},
			{Name: "eth0", BytesRecv: 500, BytesSent: 300, PacketsRecv: 5, PacketsSent: 3, Errin: 1, Errout: 2},
		}, nil
	}
	table := module.NewInstanceTable()
	mod.RegisterInstanceHelpers(table)

	instances, err := mod.Refresh()
	require.NoError(t, err)
	require.Len(t, instances, 1, "lo is ignored")
	table.Replace(instances)

	var eth0 int
	for id := range instances {
		eth0 = id
	}

	expect := []float64{500, 300, 5, 3, 1, 2}
	for item, want := range expect {
		result, err := mod.Fetch(item, eth0)
		require.NoError(t, err)
		require.Equal(t, module.StatusOK, result.Status, "item %d", item)
		assert.Equal(t, want, result.Value, "item %d", item)
	}

	result, err := mod.Fetch(len(expect), eth0)
	require.NoError(t, err)
	assert.Equal(t, module.StatusNoSuchMetric, result.Status)
}

func TestDeclaredMetricsMatchFetchItems(t *testing.T) {
	m, err := New(module.Options{Name: "netif"})
	require.NoError(t, err)
	hasInstances, defs := m.Metrics()
	assert.True(t, hasInstances)
	assert.Len(t, defs, 6)
}
