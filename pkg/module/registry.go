package module

import "fmt"

// Registry maps implementation names to factories.
type Registry map[string]Factory

// DefaultRegistry is where built-in modules register themselves from init.
var DefaultRegistry = Registry{}

// Register registers a factory in the DefaultRegistry.
func Register(name string, factory Factory) {
	DefaultRegistry.Register(name, factory)
}

// Register registers a factory. Duplicate registration is a programming
// error and panics.
func (r Registry) Register(name string, factory Factory) {
	if _, ok := r[name]; ok {
		panic(fmt.Sprintf("module %q is already in registry", name))
	}
	r[name] = factory
}

// Lookup resolves an implementation name.
func (r Registry) Lookup(name string) (Factory, bool) {
	f, ok := r[name]
	return f, ok
}

// Names returns the registered implementation names, for diagnostics.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}
