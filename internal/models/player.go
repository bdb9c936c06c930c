// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is one seat in a room. The slice position of a player inside
// Room.Players is the turn order; hand order is the index space that
// playCard references.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsHost    bool      `json:"isHost"`
	Hand      []Card    `json:"hand"`
	CalledUno bool      `json:"calledUno"`
}
