package runutil

import (
	"sort"
	"sync"

	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// Factory builds a component on top of the framework services.
type Factory func(base *Base) Component

// Registry maps component names to factories. It is safe for concurrent
// use.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a factory under a unique name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errutil.Newf(errutil.Validation, "component %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Unregister removes a factory.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return errutil.Newf(errutil.Validation, "component %q not registered", name)
	}
	delete(r.factories, name)
	return nil
}

// Get looks up a factory by name.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errutil.Newf(errutil.Validation, "component %q not registered", name)
	}
	return factory, nil
}

// Names lists the registered components in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every registered factory.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = map[string]Factory{}
}

// Len reports the number of registered components.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.factories)
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the process-wide registry.
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// Lookup fetches a factory from the process-wide registry.
func Lookup(name string) (Factory, error) {
	return defaultRegistry.Get(name)
}

// Registered lists the process-wide registry in sorted order.
func Registered() []string {
	return defaultRegistry.Names()
}
