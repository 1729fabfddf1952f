// Package host models the agent's side of the monitoring-host boundary:
// the schema the allocator registers and the instance-domain tables the
// dispatcher pushes refreshed enumerations into. The host's transport is
// external; everything here is the process-side bookkeeping behind a
// small interface so tests can substitute their own.
package host

import "fmt"

// NoIndom marks a metric or module without an instance domain.
const NoIndom = -1

// MetricSpec is one registered metric address and its passthrough
// metadata. Name is already prefix-qualified.
type MetricSpec struct {
	Cluster int    `json:"cluster"`
	Item    int    `json:"item"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Unit    string `json:"unit"`
	Indom   int    `json:"indom"`
	Help    string `json:"help,omitempty"`
}

// Host is the capability set the allocator and dispatcher need from the
// monitoring host.
type Host interface {
	// RegisterMetric records one (cluster, item) address. A collision is
	// an error: the address space must stay injective.
	RegisterMetric(spec MetricSpec) error
	// NewInstanceDomain allocates a fresh instance-domain id for a cluster.
	NewInstanceDomain(cluster int) (int, error)
	// ReplaceInstances swaps an instance domain's enumeration wholesale.
	ReplaceInstances(indom int, instances map[int]string) error
}

// AddressError reports a (cluster, item) collision at registration time.
type AddressError struct {
	Cluster int
	Item    int
	Name    string
	Taken   string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("metric address (%d,%d) for %q already registered to %q",
		e.Cluster, e.Item, e.Name, e.Taken)
}
