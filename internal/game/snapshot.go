// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"

	"github.com/wildfour/uno/internal/models"
)

// SnapshotPlayer is one seat as seen from any recipient: public counters
// only, never the hand itself.
type SnapshotPlayer struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	HandCount       int       `json:"handCount"`
	CalledUno       bool      `json:"calledUno"`
	IsCurrentPlayer bool      `json:"isCurrentPlayer"`
}

// Snapshot is the full authoritative view for one recipient, rebuilt and
// re-sent after every state-changing action. Other players' hands are only
// ever disclosed as counts.
type Snapshot struct {
	Players    []SnapshotPlayer `json:"players"`
	Hand       []models.Card    `json:"hand"`
	TopCard    *models.Card     `json:"topCard,omitempty"`
	Direction  string           `json:"direction"`
	IsYourTurn bool             `json:"isYourTurn"`
}

// snapshotFor projects the room onto one recipient. Assumes the lock is held.
func (r *Room) snapshotFor(recipient *models.Player) Snapshot {
	current := r.Players[r.CurrentPlayerIndex]

	players := make([]SnapshotPlayer, len(r.Players))
	for i, p := range r.Players {
		players[i] = SnapshotPlayer{
			ID:              p.ID,
			Name:            p.Name,
			HandCount:       len(p.Hand),
			CalledUno:       p.CalledUno,
			IsCurrentPlayer: p.ID == current.ID,
		}
	}

	hand := make([]models.Card, len(recipient.Hand))
	copy(hand, recipient.Hand)

	snap := Snapshot{
		Players:    players,
		Hand:       hand,
		Direction:  r.directionLabel(),
		IsYourTurn: recipient.ID == current.ID,
	}
	if len(r.DiscardPile) > 0 {
		top := r.DiscardPile[len(r.DiscardPile)-1]
		snap.TopCard = &top
	}
	return snap
}

// broadcastGameState unicasts a fresh per-recipient snapshot to every seat.
// Assumes the lock is held.
func (r *Room) broadcastGameState() {
	for _, p := range r.Players {
		state := r.snapshotFor(p)
		r.channel.Unicast(p.ID, Event{Type: EventGameState, State: &state})
	}
}
