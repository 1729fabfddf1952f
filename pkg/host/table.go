package host

import (
	"fmt"
	"sort"
)

type address struct{ cluster, item int }

// SchemaTable is the in-memory Host implementation. It is written once
// during startup and read-only afterwards, except for the instance
// enumerations the dispatcher replaces on refresh.
type SchemaTable struct {
	metrics   map[address]MetricSpec
	indoms    map[int]map[int]string
	byCluster map[int]int // cluster → indom
	nextIndom int
}

// NewSchemaTable returns an empty table.
func NewSchemaTable() *SchemaTable {
	return &SchemaTable{
		metrics:   make(map[address]MetricSpec),
		indoms:    make(map[int]map[int]string),
		byCluster: make(map[int]int),
	}
}

// RegisterMetric implements Host.
func (t *SchemaTable) RegisterMetric(spec MetricSpec) error {
	addr := address{spec.Cluster, spec.Item}
	if taken, ok := t.metrics[addr]; ok {
		return &AddressError{Cluster: spec.Cluster, Item: spec.Item, Name: spec.Name, Taken: taken.Name}
	}
	t.metrics[addr] = spec
	return nil
}

// NewInstanceDomain implements Host. Domain ids are handed out
// sequentially; a cluster asks at most once.
func (t *SchemaTable) NewInstanceDomain(cluster int) (int, error) {
	if indom, ok := t.byCluster[cluster]; ok {
		return 0, fmt.Errorf("cluster %d already owns instance domain %d", cluster, indom)
	}
	indom := t.nextIndom
	t.nextIndom++
	t.byCluster[cluster] = indom
	t.indoms[indom] = make(map[int]string)
	return indom, nil
}

// ReplaceInstances implements Host.
func (t *SchemaTable) ReplaceInstances(indom int, instances map[int]string) error {
	if _, ok := t.indoms[indom]; !ok {
		return fmt.Errorf("unknown instance domain %d", indom)
	}
	fresh := make(map[int]string, len(instances))
	for id, name := range instances {
		fresh[id] = name
	}
	t.indoms[indom] = fresh
	return nil
}

// Lookup returns the metric registered at (cluster, item).
func (t *SchemaTable) Lookup(cluster, item int) (MetricSpec, bool) {
	spec, ok := t.metrics[address{cluster, item}]
	return spec, ok
}

// InstanceName resolves an instance id within a domain.
func (t *SchemaTable) InstanceName(indom, id int) (string, bool) {
	insts, ok := t.indoms[indom]
	if !ok {
		return "", false
	}
	name, ok := insts[id]
	return name, ok
}

// Instances returns a copy of a domain's current enumeration.
func (t *SchemaTable) Instances(indom int) map[int]string {
	out := make(map[int]string, len(t.indoms[indom]))
	for id, name := range t.indoms[indom] {
		out[id] = name
	}
	return out
}

// Metrics returns every registered metric ordered by address, for the
// schema walk.
func (t *SchemaTable) Metrics() []MetricSpec {
	out := make([]MetricSpec, 0, len(t.metrics))
	for _, spec := range t.metrics {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cluster != out[j].Cluster {
			return out[i].Cluster < out[j].Cluster
		}
		return out[i].Item < out[j].Item
	})
	return out
}

// Len returns the number of registered metrics.
func (t *SchemaTable) Len() int { return len(t.metrics) }
