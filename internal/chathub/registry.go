package chathub

import "sync"

// Conn is a live client connection as seen by the hub. Implementations
// must be comparable (pointer receivers) because the registry removes
// connections by identity.
type Conn interface {
	// Send queues ev for delivery. It must not block; it returns false when
	// the connection is closed or cannot keep up.
	Send(ev Outbound) bool
	// Close tears the connection down. It must be safe to call repeatedly.
	Close()
}

// Registry maps user ids to their open connections. A user with no open
// connections has no entry at all.
type Registry struct {
	mu    sync.RWMutex
	conns map[uint][]Conn
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint][]Conn)}
}

// Add appends c to userID's connections and reports whether it is the
// user's first. Adding the same connection twice is not deduplicated.
func (r *Registry) Add(userID uint, c Conn) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	first = len(r.conns[userID]) == 0
	r.conns[userID] = append(r.conns[userID], c)
	return first
}

// Remove drops c from userID's connections by identity. removed is false
// for an unknown connection; emptied reports whether the user's entry was
// deleted by this call.
func (r *Registry) Remove(userID uint, c Conn) (removed, emptied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.conns[userID]
	if !ok {
		return false, false
	}
	idx := -1
	for i, x := range list {
		if x == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, false
	}
	if len(list) == 1 {
		delete(r.conns, userID)
		return true, true
	}
	r.conns[userID] = append(list[:idx], list[idx+1:]...)
	return true, false
}

// Get returns a snapshot of userID's connections; nil if there are none.
func (r *Registry) Get(userID uint) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.conns[userID]
	if len(list) == 0 {
		return nil
	}
	out := make([]Conn, len(list))
	copy(out, list)
	return out
}

// Count returns the number of open connections for userID.
func (r *Registry) Count(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// Has reports whether userID has an entry.
func (r *Registry) Has(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Users returns the number of users with at least one connection.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Drain empties the registry and returns every connection it held, keyed by user.
func (r *Registry) Drain() map[uint][]Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.conns
	r.conns = make(map[uint][]Conn)
	return out
}
