package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Configuration failure sentinels. Every one of them is fatal at startup.
var (
	ErrConfigMissing    = errors.New("configuration file not found")
	ErrSectionMissing   = errors.New("configuration section missing")
	ErrUnknownDirective = errors.New("unknown agent directive")
	ErrInvalidCluster   = errors.New("invalid cluster id")
	ErrIncompleteModule = errors.New("incomplete module section")
	ErrNoModulesEnabled = errors.New("no modules enabled")
)

// agentSection is the name of the top-level section declaring the module
// list and the agent-wide prefix.
const agentSection = "agent"

// Descriptor is one enabled module's configuration, immutable after load.
type Descriptor struct {
	// Name is the section name from the enabled-modules list.
	Name string `mapstructure:"-"`
	// Implementation names the concrete module to load.
	Implementation string `mapstructure:"implementation" validate:"required"`
	// Cluster is the module's unique cluster id.
	Cluster int `mapstructure:"cluster" validate:"gte=0"`
	// Prefix overrides the agent-wide metric-name prefix.
	Prefix string `mapstructure:"prefix"`
	// Options carries the rest of the section through to the module.
	Options map[string]any `mapstructure:",remain"`
}

// parseModuleLayout reads the agent section and every enabled module's
// section, producing ordered descriptors. Section names are compared
// lowercase, matching viper's key handling.
func parseModuleLayout(v *viper.Viper) (string, []Descriptor, error) {
	if v.Get(agentSection) == nil {
		return "", nil, fmt.Errorf("%w: [%s]", ErrSectionMissing, agentSection)
	}
	for key := range v.GetStringMap(agentSection) {
		switch key {
		case "modules", "prefix":
		default:
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownDirective, agentSection, key)
		}
	}

	prefix := v.GetString(agentSection + ".prefix")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var names []string
	for _, name := range strings.Split(v.GetString(agentSection+".modules"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, strings.ToLower(name))
		}
	}
	if len(names) == 0 {
		return "", nil, fmt.Errorf("%w: %s.modules is empty", ErrNoModulesEnabled, agentSection)
	}

	descs := make([]Descriptor, 0, len(names))
	seenName := make(map[string]bool, len(names))
	clusterOwner := make(map[int]string, len(names))
	for _, name := range names {
		if seenName[name] {
			return "", nil, fmt.Errorf("module %q enabled more than once", name)
		}
		seenName[name] = true

		if v.Get(name) == nil {
			return "", nil, fmt.Errorf("%w: [%s]", ErrSectionMissing, name)
		}
		section := v.GetStringMap(name)

		if _, ok := section["implementation"]; !ok {
			return "", nil, fmt.Errorf("%w: %s has no implementation", ErrIncompleteModule, name)
		}
		rawCluster, ok := section["cluster"]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s has no cluster id", ErrIncompleteModule, name)
		}
		cluster, err := clusterID(rawCluster)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s: %v", ErrInvalidCluster, name, err)
		}
		if owner, dup := clusterOwner[cluster]; dup {
			return "", nil, fmt.Errorf("%w: cluster %d shared by %q and %q", ErrInvalidCluster, cluster, owner, name)
		}
		clusterOwner[cluster] = name

		// Cluster is coerced above; keep it out of the decode so a
		// string-typed id does not trip the int field.
		rest := make(map[string]any, len(section))
		for k, val := range section {
			if k != "cluster" {
				rest[k] = val
			}
		}
		d := Descriptor{Name: name, Cluster: cluster, Prefix: prefix}
		if err := mapstructure.Decode(rest, &d); err != nil {
			return "", nil, fmt.Errorf("%w: %s: %v", ErrIncompleteModule, name, err)
		}
		if d.Implementation == "" {
			return "", nil, fmt.Errorf("%w: %s has an empty implementation", ErrIncompleteModule, name)
		}
		if d.Prefix == "" {
			d.Prefix = prefix
		}
		descs = append(descs, d)
	}
	return prefix, descs, nil
}

// clusterID coerces a section's cluster value to a non-negative integer.
func clusterID(raw any) (int, error) {
	var n int
	switch c := raw.(type) {
	case int:
		n = c
	case int64:
		n = int(c)
	case uint64:
		n = int(c)
	case float64:
		if c != math.Trunc(c) {
			return 0, fmt.Errorf("%v is not an integer", c)
		}
		n = int(c)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", c)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%v (%T) is not an integer", raw, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}
