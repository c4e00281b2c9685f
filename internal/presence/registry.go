package presence

import (
	"sync"

	"github.com/MoadE2002/healthcare-sub000/internal/metrics"
	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
)

// Conn is a live notification-channel connection.
type Conn interface {
	ID() string
	Send(env protocol.Envelope) error
}

// Registry maps authenticated user ids to their active connection handle.
// A user re-registering (new tab, refresh) overwrites the previous handle:
// last write wins, no multi-device fan-out.
type Registry struct {
	mu    sync.RWMutex
	users map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]Conn)}
}

// Register binds the user to the connection, replacing any previous handle.
func (r *Registry) Register(userID string, c Conn) {
	r.mu.Lock()
	if _, ok := r.users[userID]; !ok {
		metrics.RegisteredUsers.Inc()
	}
	r.users[userID] = c
	r.mu.Unlock()
}

// Unregister clears the user's entry only if it still points at the given
// handle, so a delayed close of an old connection cannot wipe out a newer
// registration.
func (r *Registry) Unregister(userID string, c Conn) {
	r.mu.Lock()
	if cur, ok := r.users[userID]; ok && cur.ID() == c.ID() {
		delete(r.users, userID)
		metrics.RegisteredUsers.Dec()
	}
	r.mu.Unlock()
}

// Lookup returns the user's current connection, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	return c, ok
}
