package agent

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// IntrospectEnv switches the agent into introspection mode: the address
// space is built and walkable, but no instrumentation is activated at
// startup or torn down at exit.
const IntrospectEnv = "METRIC_AGENT_INTROSPECT"

// IntrospectionMode reports whether the environment asks for
// introspection.
func IntrospectionMode() bool {
	switch os.Getenv(IntrospectEnv) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}

// Lifecycle drives the one-time startup and shutdown hooks. Compile and
// Cleanup are skipped as a pair in introspection mode; the compiled flag
// makes that pairing structural instead of two scattered env checks.
type Lifecycle struct {
	reg        *Registry
	introspect bool
	compiled   bool
	once       sync.Once
	log        *zap.Logger
}

// NewLifecycle builds the lifecycle manager. introspect is decided once
// at startup, normally from IntrospectionMode.
func NewLifecycle(reg *Registry, introspect bool, log *zap.Logger) *Lifecycle {
	return &Lifecycle{reg: reg, introspect: introspect, log: log}
}

// Startup compiles every module in registration order. The first compile
// error is fatal for the whole process: a module that cannot compile
// indicates a systemic environment problem, not an isolated per-call
// failure.
func (l *Lifecycle) Startup() error {
	if l.introspect {
		l.log.Info("introspection mode: compile skipped")
		return nil
	}
	for _, loaded := range l.reg.Modules() {
		if err := loaded.Impl.Compile(); err != nil {
			return fmt.Errorf("compile module %q: %w", loaded.Desc.Name, err)
		}
		l.log.Debug("module compiled", zap.String("module", loaded.Desc.Name))
	}
	l.compiled = true
	return nil
}

// Shutdown cleans up every module in registration order, exactly once.
// Cleanup failures are logged, not retried, and never block the
// remaining modules. Nothing runs if compile never did.
func (l *Lifecycle) Shutdown() {
	l.once.Do(func() {
		if !l.compiled {
			l.log.Info("cleanup skipped: modules were never compiled")
			return
		}
		for _, loaded := range l.reg.Modules() {
			if err := loaded.Impl.Cleanup(); err != nil {
				l.log.Error("module cleanup failed",
					zap.String("module", loaded.Desc.Name),
					zap.Error(err))
				continue
			}
			l.log.Debug("module cleaned up", zap.String("module", loaded.Desc.Name))
		}
	})
}
