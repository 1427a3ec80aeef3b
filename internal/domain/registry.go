package domain

import (
	"sync"

	"github.com/petrijr/ripple/pkg/api"
)

// Registry keeps the observer nodes of a domain alive and owns their
// teardown. Observers are reachable only through their subject edge, so
// without the registry nothing would pin them.
type Registry struct {
	mu      sync.Mutex
	entries map[api.NodeID]registryEntry
}

type registryEntry struct {
	node     api.Node
	onDetach func()
}

// NewRegistry creates an empty observer registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[api.NodeID]registryEntry)}
}

// Register pins n. onDetach is invoked exactly once when the node is
// unregistered; it is where the caller severs the node's graph edges.
func (r *Registry) Register(n api.Node, onDetach func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[n.ObjectID()] = registryEntry{node: n, onDetach: onDetach}
}

// Unregister removes n and runs its teardown. Unknown nodes are
// ignored, so detach-during-turn followed by an explicit detach is
// harmless.
func (r *Registry) Unregister(n api.Node) {
	r.mu.Lock()
	entry, ok := r.entries[n.ObjectID()]
	if ok {
		delete(r.entries, n.ObjectID())
	}
	r.mu.Unlock()

	if ok && entry.onDetach != nil {
		entry.onDetach()
	}
}

// IsRegistered reports whether n is currently pinned.
func (r *Registry) IsRegistered(n api.Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[n.ObjectID()]
	return ok
}

// Len returns the number of registered observers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
