// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/wildfour/uno/internal/models"
)

// EventType is an enum-like type for events emitted to clients. The string
// values are the wire event names.
type EventType string

const (
	EventRoomCreated      EventType = "roomCreated"
	EventRoomJoined       EventType = "roomJoined"
	EventUpdatePlayers    EventType = "updatePlayers"
	EventGameState        EventType = "gameState"
	EventDirectionChanged EventType = "gameDirectionChanged"
	EventPlayerSkipped    EventType = "playerSkipped"
	EventCanPlayDrawnCard EventType = "canPlayDrawnCard"
	EventPlayerCalledUno  EventType = "playerCalledUno"
	EventPlayerCaught     EventType = "playerCaught"
	EventGameEnded        EventType = "gameEnded"
	EventError            EventType = "error"
	EventPong             EventType = "pong"
)

// PlayerInfo is the public view of a seat used in updatePlayers broadcasts.
// Hands are never included here; gameState snapshots carry the recipient's
// own hand only.
type PlayerInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	IsHost bool      `json:"isHost"`
}

// Event is the single envelope for everything the server sends to a client.
// Optional fields use omitempty so each event type serializes with only the
// fields it needs.
type Event struct {
	Type EventType `json:"type"`

	Code     string    `json:"code,omitempty"`     // roomCreated, roomJoined
	PlayerID uuid.UUID `json:"playerId,omitempty"` // roomCreated, roomJoined

	Players []PlayerInfo `json:"players,omitempty"` // updatePlayers

	State *Snapshot `json:"state,omitempty"` // gameState

	Direction  string      `json:"direction,omitempty"`  // gameDirectionChanged
	PlayerName string      `json:"playerName,omitempty"` // playerSkipped, playerCalledUno
	CardType   models.Kind `json:"cardType,omitempty"`   // canPlayDrawnCard

	Catcher string `json:"catcher,omitempty"` // playerCaught
	Caught  string `json:"caught,omitempty"`  // playerCaught

	Winner string `json:"winner,omitempty"` // gameEnded (won)
	Reason string `json:"reason,omitempty"` // gameEnded (aborted)

	Message string `json:"message,omitempty"` // error
}

// RoomChannel is the delivery capability a Room uses to reach its players.
// The transport layer implements it; the game core never touches sockets.
type RoomChannel interface {
	// Unicast delivers ev to a single player, if still connected.
	Unicast(playerID uuid.UUID, ev Event)
	// Broadcast delivers ev to every player in the room.
	Broadcast(ev Event)
}
