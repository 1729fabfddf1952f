// Package modules pulls in every built-in instrumentation module so a
// single blank import makes them all resolvable by implementation name.
package modules

import (
	_ "github.com/metric-agent/pkg/modules/cpumod"
	_ "github.com/metric-agent/pkg/modules/diskstat"
	_ "github.com/metric-agent/pkg/modules/loadavg"
	_ "github.com/metric-agent/pkg/modules/meminfo"
	_ "github.com/metric-agent/pkg/modules/netif"
)
