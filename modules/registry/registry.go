// Package registry tracks live connections, their room memberships, and the
// user identity bound to each connection for direct-message delivery.
package registry

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Registry is the single owner of the connection, room, and user-binding
// maps. All mutations take the write lock; fan-out reads take snapshots
// under the read lock so no lock is ever held across socket I/O.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client         // connection id -> client
	rooms   map[string]map[string]bool // room -> set of connection ids
	users   map[string]string          // user id -> connection id
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
		users:   make(map[string]string),
	}
}

// Connect allocates a new connection identity for the socket.
func (r *Registry) Connect(conn SocketWriter) *Client {
	client := &Client{
		ID:   uuid.New().String(),
		conn: conn,
	}

	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()

	return client
}

// BindUser binds a user identity to a connection for direct-message
// delivery. A later binding for the same user wins; the previous session's
// room memberships are untouched. Empty user ids and unknown connections
// are ignored.
func (r *Registry) BindUser(connID, userID string) {
	if userID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[connID]; !ok {
		return
	}
	r.users[userID] = connID
}

// JoinRoom adds the connection to a room and returns the new membership
// count. Joining a room twice is a no-op beyond the count read.
func (r *Registry) JoinRoom(connID, room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[connID]; !ok {
		return len(r.rooms[room])
	}

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]bool)
	}
	r.rooms[room][connID] = true
	return len(r.rooms[room])
}

// Disconnect removes the connection from every room and drops any user
// binding that points at it. Returns the new membership count per affected
// room so the caller can broadcast presence updates.
func (r *Registry) Disconnect(connID string) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	affected := make(map[string]int)
	if _, ok := r.clients[connID]; !ok {
		return affected
	}

	delete(r.clients, connID)

	for room, members := range r.rooms {
		if members[connID] {
			delete(members, connID)
			affected[room] = len(members)
			if len(members) == 0 {
				delete(r.rooms, room)
			}
		}
	}

	for userID, boundConn := range r.users {
		if boundConn == connID {
			delete(r.users, userID)
		}
	}

	return affected
}

// RoomCount returns the current membership count for a room.
func (r *Registry) RoomCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// RoomMembers returns a snapshot of the clients currently in a room.
// Delivery to the snapshot tolerates members leaving mid-flight; a departed
// member simply misses the message.
func (r *Registry) RoomMembers(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Client, 0, len(r.rooms[room]))
	for connID := range r.rooms[room] {
		if client, ok := r.clients[connID]; ok {
			members = append(members, client)
		}
	}
	return members
}

// UserClient returns the connection currently bound to a user, if any.
func (r *Registry) UserClient(userID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.users[userID]
	if !ok {
		return nil
	}
	return r.clients[connID]
}

// ClientCount returns the number of live connections.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll closes every live connection and resets all state. Used at
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if err := client.Close(); err != nil {
			log.Printf("[registry] Failed to close client %s: %v", client.ID, err)
		}
	}
	r.clients = make(map[string]*Client)
	r.rooms = make(map[string]map[string]bool)
	r.users = make(map[string]string)
}
