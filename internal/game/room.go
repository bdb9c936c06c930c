// internal/game/room.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wildfour/uno/internal/models"
)

// RoomState is the lifecycle phase of a room. A room only ever moves
// waiting -> playing -> ended; it never returns to playing.
type RoomState string

const (
	StateWaiting RoomState = "waiting"
	StatePlaying RoomState = "playing"
	StateEnded   RoomState = "ended"
)

const (
	// MaxPlayers caps the seats in a room.
	MaxPlayers = 4
	// StartingHandSize is the deal at game start.
	StartingHandSize = 7
	// CatchPenaltyDraws is the penalty for being caught with an undeclared
	// last card.
	CatchPenaltyDraws = 2
)

// OnEndedFunc is invoked once when a room's game ends, with the winner's
// name (empty if the game was aborted).
type OnEndedFunc func(code, winner string)

// Room holds the entire state for one game session. It exclusively owns its
// players, deck and discard pile; nothing is shared across rooms. All
// exported methods acquire Mu, so intents for the same room never interleave.
type Room struct {
	Code    string
	Players []*models.Player
	State   RoomState

	Deck               []models.Card
	DiscardPile        []models.Card
	CurrentPlayerIndex int
	Direction          int

	// OnEnded is invoked at game end to update registries, metrics, etc.
	OnEnded OnEndedFunc

	Mu sync.Mutex

	channel     RoomChannel
	recorder    Recorder
	rng         *rand.Rand
	actionIndex int
	startedAt   time.Time
}

// NewRoom builds an empty waiting room bound to its delivery channel.
func NewRoom(code string, channel RoomChannel, recorder Recorder) *Room {
	return &Room{
		Code:      code,
		State:     StateWaiting,
		Direction: 1,
		channel:   channel,
		recorder:  recorder,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Channel returns the room's delivery channel.
func (r *Room) Channel() RoomChannel {
	return r.channel
}

// PlayerCount returns the number of seated players.
func (r *Room) PlayerCount() int {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return len(r.Players)
}

// AddPlayer seats a new player. The first player seated becomes host.
func (r *Room) AddPlayer(id uuid.UUID, name string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StateWaiting {
		return ErrGameInProgress
	}
	if len(r.Players) >= MaxPlayers {
		return ErrRoomFull
	}

	r.Players = append(r.Players, &models.Player{
		ID:     id,
		Name:   name,
		IsHost: len(r.Players) == 0,
	})
	r.logAction(id, "player_join", map[string]interface{}{"name": name})
	r.broadcastPlayerList()
	return nil
}

// Start deals the opening hands and flips the starting discard. Only the
// host may start, and only with at least two seated players.
func (r *Room) Start(requesterID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StateWaiting {
		return ErrGameInProgress
	}
	requester := r.playerByID(requesterID)
	if requester == nil {
		return nil
	}
	if !requester.IsHost {
		return ErrNotHost
	}
	if len(r.Players) < 2 {
		return ErrInsufficientPlayers
	}

	r.Deck = BuildDeck()
	shuffleDeck(r.Deck, r.rng)

	for _, p := range r.Players {
		p.Hand = make([]models.Card, 0, StartingHandSize)
		p.CalledUno = false
		for i := 0; i < StartingHandSize; i++ {
			card, ok := r.draw()
			if !ok {
				break
			}
			p.Hand = append(p.Hand, card)
		}
	}

	// The starting discard must not be wild: put a drawn wild back and
	// reshuffle until a non-wild surfaces.
	var startCard models.Card
	for {
		card, ok := r.draw()
		if !ok {
			break
		}
		if card.IsWild() {
			r.Deck = append(r.Deck, card)
			shuffleDeck(r.Deck, r.rng)
			continue
		}
		startCard = card
		break
	}
	r.DiscardPile = []models.Card{startCard}

	r.State = StatePlaying
	r.CurrentPlayerIndex = 0
	r.Direction = 1
	r.startedAt = time.Now()
	r.logAction(requesterID, "game_start", map[string]interface{}{
		"players":   len(r.Players),
		"startCard": startCard,
	})

	// An action card on top of the opening discard takes effect immediately,
	// acting on the first seat.
	if startCard.Kind != models.KindNumber {
		r.applyEffect(startCard.Kind, true)
	}

	r.broadcastGameState()
	return nil
}

// HandlePlay validates and applies a play of the card at cardIndex in the
// acting player's hand. chosenColor is required for wild cards and ignored
// otherwise. Stale intents (unknown player, room not playing) are dropped.
func (r *Room) HandlePlay(playerID uuid.UUID, cardIndex int, chosenColor models.Color) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return nil
	}
	playerIdx := r.indexOf(playerID)
	if playerIdx == -1 {
		return nil
	}
	if playerIdx != r.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	return r.playCard(playerIdx, cardIndex, chosenColor)
}

// HandleDraw draws one card for the current player. If the drawn card is
// playable the drawer is privately offered the play and the turn stays with
// them; otherwise the turn passes on.
func (r *Room) HandleDraw(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return nil
	}
	playerIdx := r.indexOf(playerID)
	if playerIdx == -1 {
		return nil
	}
	if playerIdx != r.CurrentPlayerIndex {
		return ErrNotYourTurn
	}

	player := r.Players[playerIdx]
	card, ok := r.draw()
	if !ok {
		return nil
	}
	player.Hand = append(player.Hand, card)
	r.logAction(playerID, "card_draw", nil)

	topCard := r.DiscardPile[len(r.DiscardPile)-1]
	if IsLegalPlay(topCard, card) {
		r.channel.Unicast(playerID, Event{Type: EventCanPlayDrawnCard, CardType: card.Kind})
		return nil
	}

	r.CurrentPlayerIndex = NextIndex(r.CurrentPlayerIndex, r.Direction, len(r.Players))
	r.broadcastGameState()
	return nil
}

// HandlePlayDrawnCard plays the card the current player just drew, which
// sits at the end of their hand.
func (r *Room) HandlePlayDrawnCard(playerID uuid.UUID, chosenColor models.Color) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return nil
	}
	playerIdx := r.indexOf(playerID)
	if playerIdx == -1 {
		return nil
	}
	if playerIdx != r.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	return r.playCard(playerIdx, len(r.Players[playerIdx].Hand)-1, chosenColor)
}

// HandleCallUno processes an UNO declaration. With one card in hand (or two,
// pre-emptively) the caller is marked; otherwise the call becomes a catch
// attempt against any player holding an undeclared last card.
func (r *Room) HandleCallUno(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return nil
	}
	playerIdx := r.indexOf(playerID)
	if playerIdx == -1 {
		return nil
	}

	caller := r.Players[playerIdx]
	if len(caller.Hand) == 1 || len(caller.Hand) == 2 {
		caller.CalledUno = true
		r.logAction(playerID, "uno_called", nil)
		r.channel.Broadcast(Event{Type: EventPlayerCalledUno, PlayerName: caller.Name})
		return nil
	}

	r.catch(playerIdx)
	return nil
}

// HandleCatchUno processes an explicit catch intent. Detection is automatic:
// the first player in seat order holding an undeclared last card is caught,
// regardless of who the client pointed at.
func (r *Room) HandleCatchUno(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != StatePlaying {
		return nil
	}
	playerIdx := r.indexOf(playerID)
	if playerIdx == -1 {
		return nil
	}
	r.catch(playerIdx)
	return nil
}

// catch scans the other seats in index order for the first player holding
// exactly one card without having called UNO, and penalizes them. A scan
// with no catchable player is a no-op. Assumes the lock is held.
func (r *Room) catch(catcherIdx int) {
	catcher := r.Players[catcherIdx]
	for i, p := range r.Players {
		if i == catcherIdx || len(p.Hand) != 1 || p.CalledUno {
			continue
		}
		for n := 0; n < CatchPenaltyDraws; n++ {
			card, ok := r.draw()
			if !ok {
				break
			}
			p.Hand = append(p.Hand, card)
		}
		r.logAction(catcher.ID, "uno_caught", map[string]interface{}{"caught": p.Name})
		r.channel.Broadcast(Event{Type: EventPlayerCaught, Catcher: catcher.Name, Caught: p.Name})
		r.broadcastGameState()
		return
	}
}

// RemovePlayer unseats a disconnected player and repairs the room around the
// gap: host reassignment, game abort below two players, and turn-pointer
// adjustment. Returns whether the player was seated and whether the room is
// now empty (and should be deregistered).
func (r *Room) RemovePlayer(playerID uuid.UUID) (removed, empty bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	idx := r.indexOf(playerID)
	if idx == -1 {
		return false, false
	}
	departing := r.Players[idx]
	wasHost := departing.IsHost
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	r.logAction(playerID, "player_leave", map[string]interface{}{"name": departing.Name})

	if len(r.Players) == 0 {
		return true, true
	}

	if wasHost || !r.hasHost() {
		for _, p := range r.Players {
			p.IsHost = false
		}
		r.Players[0].IsHost = true
	}

	if r.State == StatePlaying {
		if len(r.Players) < 2 {
			r.end("", "Not enough players")
		} else {
			if idx < r.CurrentPlayerIndex {
				r.CurrentPlayerIndex--
			} else if idx == r.CurrentPlayerIndex {
				// The seat that shifted into the vacated index takes the
				// turn; wrap if the last seat left.
				if r.CurrentPlayerIndex >= len(r.Players) {
					r.CurrentPlayerIndex = 0
				}
			}
			r.broadcastGameState()
		}
	}

	r.broadcastPlayerList()
	return true, false
}

// playCard is the single mutation path for both playCard and playDrawnCard.
// Index bounds, legality against the discard top, and wild color choice are
// all validated before any state changes. Assumes the lock is held.
func (r *Room) playCard(playerIdx, cardIndex int, chosenColor models.Color) error {
	player := r.Players[playerIdx]
	if cardIndex < 0 || cardIndex >= len(player.Hand) {
		return ErrInvalidCardIndex
	}
	card := player.Hand[cardIndex]

	topCard := r.DiscardPile[len(r.DiscardPile)-1]
	if !IsLegalPlay(topCard, card) {
		return ErrIllegalPlay
	}
	if card.IsWild() {
		if !chosenColor.IsBase() {
			return ErrInvalidColor
		}
		card.Color = chosenColor
	}

	player.Hand = append(player.Hand[:cardIndex], player.Hand[cardIndex+1:]...)
	r.DiscardPile = append(r.DiscardPile, card)
	for _, p := range r.Players {
		p.CalledUno = false
	}
	r.logAction(player.ID, "card_play", map[string]interface{}{"card": card})

	if len(player.Hand) == 0 {
		r.end(player.Name, "")
		r.broadcastGameState()
		return nil
	}

	r.applyEffect(card.Kind, false)
	r.broadcastGameState()
	return nil
}

// applyEffect resolves a card's effect description against the room. For a
// normal play the effect acts on the next seat; when resolving the starting
// discard it acts on the first seat and the turn-completion advance is not
// owed. Assumes the lock is held.
func (r *Room) applyEffect(kind models.Kind, starting bool) {
	eff := EffectFor(kind, len(r.Players))
	advance := eff.Advance
	if starting {
		advance--
	}

	if eff.FlipDirection {
		r.Direction = -r.Direction
		r.channel.Broadcast(Event{Type: EventDirectionChanged, Direction: r.directionLabel()})
	}

	if eff.ReportSkip || eff.TargetDraws > 0 {
		targetIdx := r.CurrentPlayerIndex
		if !starting {
			targetIdx = NextIndex(r.CurrentPlayerIndex, r.Direction, len(r.Players))
		}
		target := r.Players[targetIdx]
		if eff.ReportSkip {
			r.channel.Broadcast(Event{Type: EventPlayerSkipped, PlayerName: target.Name})
		}
		for i := 0; i < eff.TargetDraws; i++ {
			card, ok := r.draw()
			if !ok {
				break
			}
			target.Hand = append(target.Hand, card)
		}
	}

	for i := 0; i < advance; i++ {
		r.CurrentPlayerIndex = NextIndex(r.CurrentPlayerIndex, r.Direction, len(r.Players))
	}
}

// draw pops a card from the deck tail, recycling the discard pile (all but
// its top card) when the deck runs dry. Returns false only if even the
// recycle yields nothing. Assumes the lock is held.
func (r *Room) draw() (models.Card, bool) {
	if len(r.Deck) == 0 {
		if len(r.DiscardPile) > 1 {
			top := r.DiscardPile[len(r.DiscardPile)-1]
			r.Deck = append(r.Deck, r.DiscardPile[:len(r.DiscardPile)-1]...)
			r.DiscardPile = []models.Card{top}
			shuffleDeck(r.Deck, r.rng)
		}
		if len(r.Deck) == 0 {
			return models.Card{}, false
		}
	}
	card := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	return card, true
}

// end transitions the room to ended and announces either the winner or the
// abort reason. Assumes the lock is held.
func (r *Room) end(winner, reason string) {
	r.State = StateEnded
	payload := map[string]interface{}{
		"players":    len(r.Players),
		"durationMs": time.Since(r.startedAt).Milliseconds(),
	}
	ev := Event{Type: EventGameEnded}
	if winner != "" {
		ev.Winner = winner
		payload["winner"] = winner
	} else {
		ev.Reason = reason
		payload["reason"] = reason
	}
	r.logAction(uuid.Nil, "game_end", payload)
	r.channel.Broadcast(ev)
	if r.OnEnded != nil {
		r.OnEnded(r.Code, winner)
	}
}

// BroadcastPlayerList re-announces the public seat list, typically after a
// newcomer's delivery-group join.
func (r *Room) BroadcastPlayerList() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.broadcastPlayerList()
}

// broadcastPlayerList announces the public seat list. Assumes the lock is
// held. Hands never appear here.
func (r *Room) broadcastPlayerList() {
	players := make([]PlayerInfo, len(r.Players))
	for i, p := range r.Players {
		players[i] = PlayerInfo{ID: p.ID, Name: p.Name, IsHost: p.IsHost}
	}
	r.channel.Broadcast(Event{Type: EventUpdatePlayers, Players: players})
}

func (r *Room) directionLabel() string {
	if r.Direction == 1 {
		return "clockwise"
	}
	return "counterclockwise"
}

func (r *Room) playerByID(id uuid.UUID) *models.Player {
	if idx := r.indexOf(id); idx != -1 {
		return r.Players[idx]
	}
	return nil
}

func (r *Room) indexOf(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) hasHost() bool {
	for _, p := range r.Players {
		if p.IsHost {
			return true
		}
	}
	return false
}
