package conversation

import (
	"sync"
)

// Registry holds one Manager per session scope, created on first use.
type Registry struct {
	mu       sync.Mutex
	managers map[string]*Manager
	factory  func(scope string) *Manager
}

func NewRegistry(factory func(scope string) *Manager) *Registry {
	return &Registry{
		managers: make(map[string]*Manager),
		factory:  factory,
	}
}

// Get returns the scope's manager, creating it if needed.
func (r *Registry) Get(scope string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[scope]; ok {
		return m
	}
	m := r.factory(scope)
	r.managers[scope] = m
	return m
}

// Lookup returns the scope's manager only if it already exists.
func (r *Registry) Lookup(scope string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[scope]
	return m, ok
}

// Close closes every manager.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.managers {
		m.Close()
	}
}
