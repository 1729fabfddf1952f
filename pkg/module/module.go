// Package module defines the contract every instrumentation module must
// implement, plus the registry the agent resolves implementation names
// against. The agent never interprets metric values; it only routes them
// between the monitoring host and the module that produced them.
package module

import (
	"go.uber.org/zap"
)

// FetchStatus is the status channel of a fetch: expected absence is
// reported here, never as an error.
type FetchStatus int

const (
	StatusOK FetchStatus = iota
	StatusNoValues
	StatusNoSuchMetric
	StatusNoSuchInstance
)

func (s FetchStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoValues:
		return "no-values"
	case StatusNoSuchMetric:
		return "no-such-metric"
	case StatusNoSuchInstance:
		return "no-such-instance"
	default:
		return "unknown"
	}
}

// FetchResult is the value-or-status result of a single fetch call.
// Value is only meaningful when Status is StatusOK.
type FetchResult struct {
	Value  float64
	Status FetchStatus
}

// OKValue wraps a successfully collected value.
func OKValue(v float64) FetchResult { return FetchResult{Value: v, Status: StatusOK} }

// NoValues reports that the metric currently has no value.
func NoValues() FetchResult { return FetchResult{Status: StatusNoValues} }

// NoSuchMetric reports an item id the module never declared.
func NoSuchMetric() FetchResult { return FetchResult{Status: StatusNoSuchMetric} }

// NoSuchInstance reports an instance id absent from the current enumeration.
func NoSuchInstance() FetchResult { return FetchResult{Status: StatusNoSuchInstance} }

// MetricDef declares one metric. The item id is not part of the
// definition: it is assigned by declaration order (0, 1, 2, ...) when the
// module is registered and never renumbered afterwards.
type MetricDef struct {
	// Name is the module-local metric name, unique within the module.
	// The registered name is the module's prefix joined with it.
	Name string
	// Type and Unit are opaque metadata passed through to the host.
	Type string
	Unit string
	// PerInstance links the metric to the module's instance domain.
	PerInstance bool
	// Help is a one-line description passed through to the host.
	Help string
}

// Module is the fixed capability set every instrumentation module
// implements. Calls arrive serially; a module never has more than one
// call in flight.
type Module interface {
	// Metrics is called once at registration time. The returned order
	// fixes item-id assignment for the process lifetime.
	Metrics() (hasInstances bool, defs []MetricDef)

	// RegisterInstanceHelpers hands the module its live instance table.
	// Called once, after every module's base metrics are registered, and
	// only when Metrics reported instances.
	RegisterInstanceHelpers(table *InstanceTable)

	// Compile activates collection. Called once at startup unless the
	// agent runs in introspection mode; an error is fatal for the whole
	// process.
	Compile() error

	// Refresh re-enumerates the module's instances and primes its caches.
	// The returned map replaces the instance table wholesale; modules
	// without instances return nil.
	Refresh() (map[int]string, error)

	// Fetch returns the current value of one metric for one instance.
	// Expected absence goes through the FetchResult status channel; an
	// error means the read itself failed.
	Fetch(item, inst int) (FetchResult, error)

	// Cleanup releases instrumentation resources. Called once at
	// shutdown unless the agent runs in introspection mode.
	Cleanup() error
}

// Options is what a factory gets to build a module from: its own config
// section and the shared log sink. Modules never see other modules'
// configuration.
type Options struct {
	// Name is the configured module name (not the implementation name).
	Name string
	// Config is the module's own configuration section, free-form.
	Config map[string]any
	// Logger is the shared diagnostic sink, pre-tagged with the module name.
	Logger *zap.Logger
}

// Factory builds a Module from its options.
type Factory func(o Options) (Module, error)
