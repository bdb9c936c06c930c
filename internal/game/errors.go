// internal/game/errors.go
package game

import "errors"

// Validation failures surfaced to the originating connection as an error
// event. None of these are fatal; stale intents with no matching room or
// player are silently dropped instead.
var (
	ErrRoomNotFound        = errors.New("Room does not exist")
	ErrGameInProgress      = errors.New("Game already in progress")
	ErrRoomFull            = errors.New("Room is full")
	ErrNotHost             = errors.New("Only the host can start the game")
	ErrInsufficientPlayers = errors.New("Need at least 2 players to start")
	ErrNotYourTurn         = errors.New("Not your turn")
	ErrInvalidCardIndex    = errors.New("Card index out of range")
	ErrIllegalPlay         = errors.New("Card cannot be played on the current discard")
	ErrInvalidColor        = errors.New("Chosen color must be Red, Blue, Green or Yellow")
)
