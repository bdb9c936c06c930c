// internal/session/registry.go
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wildfour/uno/internal/game"
)

// Registry is the explicitly-owned room table: code -> room plus the
// player -> code index. Both sides are maintained together so a room and
// its memberships are invalidated as a unit. Construct one per server and
// inject it into the Manager; there is no ambient global state.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*game.Room
	byPlayer map[uuid.UUID]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*game.Room),
		byPlayer: make(map[uuid.UUID]string),
	}
}

// Insert registers a room under its code and binds the creating player to
// it. Returns false if the code is already taken.
func (reg *Registry) Insert(room *game.Room, creator uuid.UUID) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.rooms[room.Code]; exists {
		return false
	}
	reg.rooms[room.Code] = room
	reg.byPlayer[creator] = room.Code
	return true
}

// Get looks up a room by code.
func (reg *Registry) Get(code string) (*game.Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, exists := reg.rooms[code]
	return room, exists
}

// RoomFor resolves the room a player currently belongs to.
func (reg *Registry) RoomFor(playerID uuid.UUID) (*game.Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code, exists := reg.byPlayer[playerID]
	if !exists {
		return nil, false
	}
	room, exists := reg.rooms[code]
	return room, exists
}

// Bind indexes a player into an existing room's code.
func (reg *Registry) Bind(playerID uuid.UUID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byPlayer[playerID] = code
}

// Unbind drops a player's room index.
func (reg *Registry) Unbind(playerID uuid.UUID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.byPlayer, playerID)
}

// Delete removes a room by code. Player bindings are removed by Unbind as
// each player departs.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Exists reports whether a room code is taken.
func (reg *Registry) Exists(code string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, exists := reg.rooms[code]
	return exists
}

// Count returns the number of registered rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
