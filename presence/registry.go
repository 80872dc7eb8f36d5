package presence

import "sync"

// Registry is the live mapping from user id to the id of their most recently
// established connection. At most one entry exists per user: a new connection
// for the same user overwrites the prior entry (last-connect-wins, the
// superseded connection is not forcibly closed).
type Registry struct {
	mu    sync.Mutex
	conns map[int64]string
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]string)}
}

// Register records connID as the active connection for userID, replacing any
// existing entry.
func (r *Registry) Register(userID int64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = connID
}

// Unregister removes the entry for userID only if it still points at connID.
// A disconnect of a superseded connection must not evict the newer one.
func (r *Registry) Unregister(userID int64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[userID]; ok && current == connID {
		delete(r.conns, userID)
	}
}

// Lookup returns the active connection id for userID, if any.
func (r *Registry) Lookup(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.conns[userID]
	return connID, ok
}

// Len returns the number of users currently present.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
