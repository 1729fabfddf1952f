package module

// MockModule is a test double for the Module contract. Every operation
// delegates to the matching func field when set and falls back to a
// harmless default otherwise.
type MockModule struct {
	HasInstances bool
	Defs         []MetricDef

	MetricsFunc func() (bool, []MetricDef)
	CompileFunc func() error
	RefreshFunc func() (map[int]string, error)
	FetchFunc   func(item, inst int) (FetchResult, error)
	CleanupFunc func() error

	Table        *InstanceTable
	CompileCalls int
	CleanupCalls int
}

// Metrics invokes MetricsFunc or returns the configured definitions.
func (m *MockModule) Metrics() (bool, []MetricDef) {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return m.HasInstances, m.Defs
}

// RegisterInstanceHelpers records the table back-reference.
func (m *MockModule) RegisterInstanceHelpers(table *InstanceTable) {
	m.Table = table
}

// Compile invokes CompileFunc.
func (m *MockModule) Compile() error {
	m.CompileCalls++
	if m.CompileFunc == nil {
		return nil
	}
	return m.CompileFunc()
}

// Refresh invokes RefreshFunc.
func (m *MockModule) Refresh() (map[int]string, error) {
	if m.RefreshFunc == nil {
		return nil, nil
	}
	return m.RefreshFunc()
}

// Fetch invokes FetchFunc.
func (m *MockModule) Fetch(item, inst int) (FetchResult, error) {
	if m.FetchFunc == nil {
		return NoValues(), nil
	}
	return m.FetchFunc(item, inst)
}

// Cleanup invokes CleanupFunc.
func (m *MockModule) Cleanup() error {
	m.CleanupCalls++
	if m.CleanupFunc == nil {
		return nil
	}
	return m.CleanupFunc()
}
