package game

import "sync"

// Rooms holds one Room per key for the lifetime of the process. Rooms are
// created on first reference and never removed; state does not survive a restart.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRooms creates an empty room registry.
func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[string]*Room)}
}

// Get returns the room for key, creating it if needed. The registry lock is
// only held for the lookup and insertion.
func (rs *Rooms) Get(key string) *Room {
	rs.mu.RLock()
	r := rs.rooms[key]
	rs.mu.RUnlock()
	if r != nil {
		return r
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r = rs.rooms[key]; r == nil {
		r = newRoom(key)
		rs.rooms[key] = r
	}
	return r
}

// Len returns the number of known rooms.
func (rs *Rooms) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms)
}
