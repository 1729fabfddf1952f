package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metric-agent/pkg/host"
)

func TestSchemaTableRegisterAndLookup(t *testing.T) {
	table := host.NewSchemaTable()
	spec := host.MetricSpec{Cluster: 10, Item: 0, Name: "sys.cpu.user", Type: "counter", Unit: "seconds", Indom: host.NoIndom}
	require.NoError(t, table.RegisterMetric(spec))

	got, ok := table.Lookup(10, 0)
	require.True(t, ok)
	assert.Equal(t, spec, got)

	_, ok = table.Lookup(10, 1)
	assert.False(t, ok)
}

func TestSchemaTableAddressCollision(t *testing.T) {
	table := host.NewSchemaTable()
	require.NoError(t, table.RegisterMetric(host.MetricSpec{Cluster: 10, Item: 0, Name: "first"}))

	err := table.RegisterMetric(host.MetricSpec{Cluster: 10, Item: 0, Name: "second"})
	require.Error(t, err)
	var addrErr *host.AddressError
	require.ErrorAs(t, err, &addrErr)
	assert.Equal(t, 10, addrErr.Cluster)
	assert.Equal(t, "first", addrErr.Taken)
}

func TestSchemaTableInstanceDomains(t *testing.T) {
	table := host.NewSchemaTable()

	first, err := table.NewInstanceDomain(10)
	require.NoError(t, err)
	second, err := table.NewInstanceDomain(20)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = table.NewInstanceDomain(10)
	assert.Error(t, err, "a cluster asks for a domain at most once")

	require.NoError(t, table.ReplaceInstances(first, map[int]string{0: "sda", 1: "sdb"}))
	name, ok := table.InstanceName(first, 1)
	require.True(t, ok)
	assert.Equal(t, "sdb", name)

	require.NoError(t, table.ReplaceInstances(first, map[int]string{2: "sdc"}))
	_, ok = table.InstanceName(first, 0)
	assert.False(t, ok, "replace is wholesale")
	assert.Equal(t, map[int]string{2: "sdc"}, table.Instances(first))

	assert.Error(t, table.ReplaceInstances(99, nil))
}

func TestSchemaTableMetricsOrdered(t *testing.T) {
	table := host.NewSchemaTable()
	require.NoError(t, table.RegisterMetric(host.MetricSpec{Cluster: 20, Item: 0}))
	require.NoError(t, table.RegisterMetric(host.MetricSpec{Cluster: 10, Item: 1}))
	require.NoError(t, table.RegisterMetric(host.MetricSpec{Cluster: 10, Item: 0}))

	specs := table.Metrics()
	require.Len(t, specs, 3)
	assert.Equal(t, []int{10, 10, 20}, []int{specs[0].Cluster, specs[1].Cluster, specs[2].Cluster})
	assert.Equal(t, []int{0, 1, 0}, []int{specs[0].Item, specs[1].Item, specs[2].Item})
}
