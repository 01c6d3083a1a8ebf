// Package actions maintains the bijective table between action codes and the
// display names they were registered under. Every traced operation is
// identified by an ActionID; trees only store codes and resolve names through
// the registry at export time.
package actions

import (
	"fmt"
	"sync"

	"github.com/treeprof/treeprof/internal/errorutil"
)

// ActionID identifies a registered action. IDs are dense, starting at 0, in
// registration order.
type ActionID int

// NoAction marks the absence of an action. It is the action id of every tree
// root and must never be passed to a registry lookup.
const NoAction ActionID = -1

var errActionNotFound = fmt.Errorf("actions: %w: unregistered action id", errorutil.ErrNotFound)

// Registry is safe for concurrent use. The zero value is not usable, use
// NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]ActionID
	names []string
}

func NewRegistry() *Registry {
	return &Registry{
		codes: make(map[string]ActionID),
	}
}

// Register returns the id for name, allocating one on first registration.
// Registering the same name again always yields the same id.
func (r *Registry) Register(name string) ActionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.codes[name]; ok {
		return id
	}
	id := ActionID(len(r.names))
	r.codes[name] = id
	r.names = append(r.names, name)
	return id
}

// NameOf resolves id to the name it was registered under.
func (r *Registry) NameOf(id ActionID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.names) {
		return "", errActionNotFound
	}
	return r.names[id], nil
}

// Contains reports whether id refers to a registered action.
func (r *Registry) Contains(id ActionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return id >= 0 && int(id) < len(r.names)
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
