package agent_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/agent"
	"github.com/metric-agent/pkg/config"
	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/module"
)

func loadRegistry(t *testing.T, mods map[string]*module.MockModule, descs []config.Descriptor) *agent.Registry {
	t.Helper()
	impls := module.Registry{}
	for name, m := range mods {
		impls.Register(name, staticFactory(m))
	}
	reg, err := agent.LoadModules(descs, impls, zap.NewNop())
	require.NoError(t, err)
	return reg
}

func twoDefs() []module.MetricDef {
	return []module.MetricDef{
		{Name: "a.first", Type: "counter", Unit: "count"},
		{Name: "a.second", Type: "gauge", Unit: "bytes"},
	}
}

func TestAllocateAssignsSequentialItems(t *testing.T) {
	alpha := &module.MockModule{Defs: twoDefs()}
	reg := loadRegistry(t,
		map[string]*module.MockModule{"alpha-impl": alpha},
		[]config.Descriptor{{Name: "alpha", Implementation: "alpha-impl", Cluster: 10, Prefix: "test"}})

	schema := host.NewSchemaTable()
	require.NoError(t, agent.Allocate(reg, schema, zap.NewNop()))

	first, ok := schema.Lookup(10, 0)
	require.True(t, ok)
	assert.Equal(t, "test.a.first", first.Name)
	assert.Equal(t, "counter", first.Type)
	assert.Equal(t, host.NoIndom, first.Indom)

	second, ok := schema.Lookup(10, 1)
	require.True(t, ok)
	assert.Equal(t, "test.a.second", second.Name)

	_, ok = schema.Lookup(10, 2)
	assert.False(t, ok)
}

func TestAllocateInjectiveAddresses(t *testing.T) {
	mods := make(map[string]*module.MockModule)
	var descs []config.Descriptor
	for i := 0; i < 5; i++ {
		impl := fmt.Sprintf("impl-%d", i)
		mods[impl] = &module.MockModule{Defs: []module.MetricDef{
			{Name: "m0"}, {Name: "m1"}, {Name: "m2"},
		}}
		descs = append(descs, config.Descriptor{
			Name: fmt.Sprintf("mod%d", i), Implementation: impl, Cluster: i * 7, Prefix: "p",
		})
	}
	reg := loadRegistry(t, mods, descs)
	schema := host.NewSchemaTable()
	require.NoError(t, agent.Allocate(reg, schema, zap.NewNop()))
	// collision detection inside the schema table makes this count the
	// injectivity proof
	assert.Equal(t, 15, schema.Len())
}

func TestAllocateInstanceDomain(t *testing.T) {
	beta := &module.MockModule{
		HasInstances: true,
		Defs:         []module.MetricDef{{Name: "b.value", PerInstance: true}},
	}
	reg := loadRegistry(t,
		map[string]*module.MockModule{"beta-impl": beta},
		[]config.Descriptor{{Name: "beta", Implementation: "beta-impl", Cluster: 20, Prefix: "test"}})

	schema := host.NewSchemaTable()
	require.NoError(t, agent.Allocate(reg, schema, zap.NewNop()))

	loaded, ok := reg.ByCluster(20)
	require.True(t, ok)
	assert.NotEqual(t, host.NoIndom, loaded.Indom)
	require.NotNil(t, loaded.Instances)
	assert.Equal(t, 0, loaded.Instances.Len())

	spec, ok := schema.Lookup(20, 0)
	require.True(t, ok)
	assert.Equal(t, loaded.Indom, spec.Indom)

	// the module received the same table the registry owns, still empty
	require.Same(t, loaded.Instances, beta.Table)
}

func TestAllocateHelpersWiredAfterAllMetrics(t *testing.T) {
	var events []string
	alpha := &module.MockModule{
		HasInstances: true,
		MetricsFunc: func() (bool, []module.MetricDef) {
			events = append(events, "metrics:alpha")
			return true, []module.MetricDef{{Name: "a", PerInstance: true}}
		},
	}
	beta := &module.MockModule{
		HasInstances: true,
		MetricsFunc: func() (bool, []module.MetricDef) {
			events = append(events, "metrics:beta")
			return true, []module.MetricDef{{Name: "b", PerInstance: true}}
		},
	}
	reg := loadRegistry(t,
		map[string]*module.MockModule{"alpha-impl": alpha, "beta-impl": beta},
		[]config.Descriptor{
			{Name: "alpha", Implementation: "alpha-impl", Cluster: 10, Prefix: "p"},
			{Name: "beta", Implementation: "beta-impl", Cluster: 20, Prefix: "p"},
		})

	require.NoError(t, agent.Allocate(reg, host.NewSchemaTable(), zap.NewNop()))
	assert.Equal(t, []string{"metrics:alpha", "metrics:beta"}, events)
	// helper wiring happens after both Metrics calls, observable through
	// the populated back-references
	assert.NotNil(t, alpha.Table)
	assert.NotNil(t, beta.Table)
}

func TestAllocateDetectsAddressCollision(t *testing.T) {
	// Descriptors sharing a cluster are rejected before allocation; the
	// schema table is the second line of defense, exercised directly.
	schema := host.NewSchemaTable()
	require.NoError(t, schema.RegisterMetric(host.MetricSpec{Cluster: 10, Item: 0, Name: "taken"}))

	alpha := &module.MockModule{Defs: []module.MetricDef{{Name: "clash"}}}
	reg := loadRegistry(t,
		map[string]*module.MockModule{"alpha-impl": alpha},
		[]config.Descriptor{{Name: "alpha", Implementation: "alpha-impl", Cluster: 10, Prefix: "p"}})

	err := agent.Allocate(reg, schema, zap.NewNop())
	require.Error(t, err)
	var addrErr *host.AddressError
	assert.ErrorAs(t, err, &addrErr)
}
