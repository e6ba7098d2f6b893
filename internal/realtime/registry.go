package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the live connections belonging to each user within one
// namespace. Single-instance model: all fan-out is in-process. Entries with
// an empty connection set are removed eagerly so the map never holds
// dangling users.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]map[Conn]struct{}),
	}
}

// Add registers a connection under the user, creating the set if absent.
func (r *Registry) Add(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[userID] = set
	}
	set[conn] = struct{}{}
}

// Remove drops the connection from the user's set and removes the entry
// when the set becomes empty.
func (r *Registry) Remove(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// ConnsFor returns a snapshot of the user's live connections.
func (r *Registry) ConnsFor(userID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	return out
}

// AllConns returns a snapshot of every tracked connection across users.
func (r *Registry) AllConns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Conn
	for _, set := range r.conns {
		for conn := range set {
			out = append(out, conn)
		}
	}
	return out
}

// HasUser reports whether the user has at least one live connection.
func (r *Registry) HasUser(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// UserCount returns the number of users with live connections.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ConnCount returns the total number of live connections.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, set := range r.conns {
		total += len(set)
	}
	return total
}
