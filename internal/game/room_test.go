// internal/game/room_test.go
package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfour/uno/internal/models"
)

// mockChannel collects events instead of sending them over WS.
type mockChannel struct {
	mu         sync.Mutex
	broadcasts []Event
	unicasts   map[uuid.UUID][]Event
}

func newMockChannel() *mockChannel {
	return &mockChannel{unicasts: make(map[uuid.UUID][]Event)}
}

func (mc *mockChannel) Unicast(playerID uuid.UUID, ev Event) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.unicasts[playerID] = append(mc.unicasts[playerID], ev)
}

func (mc *mockChannel) Broadcast(ev Event) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.broadcasts = append(mc.broadcasts, ev)
}

func (mc *mockChannel) clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.broadcasts = nil
	mc.unicasts = make(map[uuid.UUID][]Event)
}

// broadcastsOfType returns every broadcast event of the given type.
func (mc *mockChannel) broadcastsOfType(t EventType) []Event {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	var out []Event
	for _, ev := range mc.broadcasts {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// lastUnicastOfType returns the most recent event of the given type sent to
// playerID, or nil.
func (mc *mockChannel) lastUnicastOfType(playerID uuid.UUID, t EventType) *Event {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	events := mc.unicasts[playerID]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == t {
			return &events[i]
		}
	}
	return nil
}

// newTestRoom seats numPlayers in a fresh waiting room.
func newTestRoom(t *testing.T, numPlayers int) (*Room, []uuid.UUID, *mockChannel) {
	t.Helper()
	ch := newMockChannel()
	r := NewRoom("ROOM01", ch, nil)
	ids := make([]uuid.UUID, numPlayers)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, r.AddPlayer(ids[i], fmt.Sprintf("Player%d", i+1)))
	}
	return r, ids, ch
}

// setupPlayingRoom puts a room into a deterministic mid-game position: red 5
// on the discard, a deck of blue 7s (illegal on red 5), and every player
// holding red 1 / blue 7 / green 9.
func setupPlayingRoom(t *testing.T, numPlayers int) (*Room, []uuid.UUID, *mockChannel) {
	t.Helper()
	r, ids, ch := newTestRoom(t, numPlayers)
	r.State = StatePlaying
	r.CurrentPlayerIndex = 0
	r.Direction = 1
	r.startedAt = time.Now()
	r.DiscardPile = []models.Card{card(models.ColorRed, models.KindNumber, 5)}
	r.Deck = nil
	for i := 0; i < 20; i++ {
		r.Deck = append(r.Deck, card(models.ColorBlue, models.KindNumber, 7))
	}
	for _, p := range r.Players {
		p.Hand = []models.Card{
			card(models.ColorRed, models.KindNumber, 1),
			card(models.ColorBlue, models.KindNumber, 7),
			card(models.ColorGreen, models.KindNumber, 9),
		}
	}
	ch.clear()
	return r, ids, ch
}

func topOfDiscard(r *Room) models.Card {
	return r.DiscardPile[len(r.DiscardPile)-1]
}

func TestAddPlayerHostAndCapacity(t *testing.T) {
	r, ids, ch := newTestRoom(t, 4)

	assert.True(t, r.Players[0].IsHost)
	for _, p := range r.Players[1:] {
		assert.False(t, p.IsHost)
	}

	err := r.AddPlayer(uuid.New(), "Overflow")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 4, r.PlayerCount())

	rosters := ch.broadcastsOfType(EventUpdatePlayers)
	require.NotEmpty(t, rosters)
	last := rosters[len(rosters)-1]
	require.Len(t, last.Players, 4)
	assert.Equal(t, ids[0], last.Players[0].ID)
	assert.True(t, last.Players[0].IsHost)
}

func TestAddPlayerAfterStart(t *testing.T) {
	r, _, _ := setupPlayingRoom(t, 2)
	err := r.AddPlayer(uuid.New(), "Latecomer")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStartValidation(t *testing.T) {
	r, ids, _ := newTestRoom(t, 3)

	assert.ErrorIs(t, r.Start(ids[1]), ErrNotHost)
	assert.Equal(t, StateWaiting, r.State)

	// Stale intent from a non-member is dropped silently.
	assert.NoError(t, r.Start(uuid.New()))
	assert.Equal(t, StateWaiting, r.State)

	solo, soloIDs, _ := newTestRoom(t, 1)
	assert.ErrorIs(t, solo.Start(soloIDs[0]), ErrInsufficientPlayers)
}

func TestStartDealsHands(t *testing.T) {
	r, ids, ch := newTestRoom(t, 3)
	require.NoError(t, r.Start(ids[0]))

	assert.Equal(t, StatePlaying, r.State)
	assert.ErrorIs(t, r.Start(ids[0]), ErrGameInProgress)

	total := len(r.Deck) + len(r.DiscardPile)
	for _, p := range r.Players {
		// A starting draw-two can push a hand past the base deal.
		assert.GreaterOrEqual(t, len(p.Hand), StartingHandSize)
		total += len(p.Hand)
	}
	assert.Equal(t, DeckSize, total, "every card stays accounted for")

	assert.False(t, topOfDiscard(r).IsWild(), "the starting discard must not be wild")

	for _, id := range ids {
		ev := ch.lastUnicastOfType(id, EventGameState)
		require.NotNil(t, ev, "every seat receives a snapshot")
		require.NotNil(t, ev.State)
	}
}

func TestStartingCardEffects(t *testing.T) {
	t.Run("skip acts on the first seat", func(t *testing.T) {
		r, _, ch := setupPlayingRoom(t, 3)
		r.applyEffect(models.KindSkip, true)
		assert.Equal(t, 1, r.CurrentPlayerIndex)
		skips := ch.broadcastsOfType(EventPlayerSkipped)
		require.Len(t, skips, 1)
		assert.Equal(t, "Player1", skips[0].PlayerName)
	})

	t.Run("draw two charges the first seat", func(t *testing.T) {
		r, _, _ := setupPlayingRoom(t, 3)
		r.applyEffect(models.KindDrawTwo, true)
		assert.Len(t, r.Players[0].Hand, 5)
		assert.Equal(t, 1, r.CurrentPlayerIndex)
	})

	t.Run("reverse flips before anyone plays", func(t *testing.T) {
		r, _, ch := setupPlayingRoom(t, 3)
		r.applyEffect(models.KindReverse, true)
		assert.Equal(t, -1, r.Direction)
		assert.Equal(t, 0, r.CurrentPlayerIndex)
		require.Len(t, ch.broadcastsOfType(EventDirectionChanged), 1)
	})

	t.Run("reverse with two players passes the opening turn", func(t *testing.T) {
		r, _, _ := setupPlayingRoom(t, 2)
		r.applyEffect(models.KindReverse, true)
		assert.Equal(t, -1, r.Direction)
		assert.Equal(t, 1, r.CurrentPlayerIndex)
	})
}

func TestPlayNumberCardAdvancesTurn(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.Equal(t, card(models.ColorRed, models.KindNumber, 1), topOfDiscard(r))
	assert.Len(t, r.Players[0].Hand, 2)
	assert.Equal(t, 1, r.CurrentPlayerIndex)
	for _, id := range ids {
		assert.NotNil(t, ch.lastUnicastOfType(id, EventGameState))
	}
}

func TestPlayValidation(t *testing.T) {
	r, ids, _ := setupPlayingRoom(t, 3)

	assert.ErrorIs(t, r.HandlePlay(ids[1], 0, ""), ErrNotYourTurn)
	assert.ErrorIs(t, r.HandlePlay(ids[0], -1, ""), ErrInvalidCardIndex)
	assert.ErrorIs(t, r.HandlePlay(ids[0], 99, ""), ErrInvalidCardIndex)
	assert.ErrorIs(t, r.HandlePlay(ids[0], 1, ""), ErrIllegalPlay)

	r.Players[0].Hand[1] = card(models.ColorWild, models.KindWild, 0)
	assert.ErrorIs(t, r.HandlePlay(ids[0], 1, ""), ErrInvalidColor)
	assert.ErrorIs(t, r.HandlePlay(ids[0], 1, models.ColorWild), ErrInvalidColor)

	// Nothing moved: failed intents must not mutate the room.
	assert.Equal(t, 0, r.CurrentPlayerIndex)
	assert.Len(t, r.DiscardPile, 1)
	assert.Len(t, r.Players[0].Hand, 3)
	assert.Len(t, r.Players[1].Hand, 3)
}

func TestSkipAdvancesTwoPositions(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)
	r.Players[0].Hand[0] = card(models.ColorRed, models.KindSkip, 0)

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.Equal(t, 2, r.CurrentPlayerIndex)
	skips := ch.broadcastsOfType(EventPlayerSkipped)
	require.Len(t, skips, 1)
	assert.Equal(t, "Player2", skips[0].PlayerName)
}

func TestDrawTwoReturnsTurnWithTwoPlayers(t *testing.T) {
	r, ids, _ := setupPlayingRoom(t, 2)
	r.Players[0].Hand[0] = card(models.ColorRed, models.KindDrawTwo, 0)

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.Len(t, r.Players[1].Hand, 5, "target draws the penalty")
	assert.Equal(t, 0, r.CurrentPlayerIndex, "turn comes back to the player")
}

func TestReverseThreePlayers(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)
	r.Players[0].Hand[0] = card(models.ColorRed, models.KindReverse, 0)

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.Equal(t, -1, r.Direction)
	assert.Equal(t, 2, r.CurrentPlayerIndex, "play proceeds counterclockwise")
	dirs := ch.broadcastsOfType(EventDirectionChanged)
	require.Len(t, dirs, 1)
	assert.Equal(t, "counterclockwise", dirs[0].Direction)
}

func TestReverseTwoPlayersActsAsSkip(t *testing.T) {
	r, ids, _ := setupPlayingRoom(t, 2)
	r.Players[0].Hand[0] = card(models.ColorRed, models.KindReverse, 0)

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.Equal(t, -1, r.Direction)
	assert.Equal(t, 0, r.CurrentPlayerIndex, "same player goes again")
}

func TestWildDrawFour(t *testing.T) {
	r, ids, _ := setupPlayingRoom(t, 3)
	r.Players[0].Hand[0] = card(models.ColorWild, models.KindWildDrawFour, 0)

	require.NoError(t, r.HandlePlay(ids[0], 0, models.ColorGreen))

	top := topOfDiscard(r)
	assert.Equal(t, models.ColorGreen, top.Color, "wild takes the chosen color")
	assert.Equal(t, models.KindWildDrawFour, top.Kind)
	assert.Len(t, r.Players[1].Hand, 7, "target draws four")
	assert.Equal(t, 2, r.CurrentPlayerIndex, "target's turn is consumed")
}

func TestWildTakesChosenColor(t *testing.T) {
	r, ids, _ := setupPlayingRoom(t, 3)
	r.Players[0].Hand[0] = card(models.ColorWild, models.KindWild, 0)

	require.NoError(t, r.HandlePlay(ids[0], 0, models.ColorBlue))

	assert.Equal(t, models.ColorBlue, topOfDiscard(r).Color)
	assert.Equal(t, 1, r.CurrentPlayerIndex)
}

func TestWinEndsGame(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 2)
	r.Players[0].Hand = []models.Card{card(models.ColorRed, models.KindNumber, 1)}

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.Equal(t, StateEnded, r.State)
	ends := ch.broadcastsOfType(EventGameEnded)
	require.Len(t, ends, 1)
	assert.Equal(t, "Player1", ends[0].Winner)
	assert.NotNil(t, ch.lastUnicastOfType(ids[1], EventGameState), "final snapshot follows the result")

	// The room never returns to playing.
	assert.NoError(t, r.HandlePlay(ids[1], 0, ""))
	assert.Equal(t, StateEnded, r.State)
}

func TestDrawKeepsTurnWhenPlayable(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)
	r.Deck = append(r.Deck, card(models.ColorRed, models.KindNumber, 9))

	require.NoError(t, r.HandleDraw(ids[0]))

	assert.Equal(t, 0, r.CurrentPlayerIndex, "drawer keeps the turn")
	assert.Len(t, r.Players[0].Hand, 4)
	offer := ch.lastUnicastOfType(ids[0], EventCanPlayDrawnCard)
	require.NotNil(t, offer)
	assert.Equal(t, models.KindNumber, offer.CardType)

	// Playing the drawn card plays the hand's last slot.
	require.NoError(t, r.HandlePlayDrawnCard(ids[0], ""))
	assert.Equal(t, card(models.ColorRed, models.KindNumber, 9), topOfDiscard(r))
	assert.Equal(t, 1, r.CurrentPlayerIndex)
}

func TestDrawPassesTurnWhenUnplayable(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)

	require.NoError(t, r.HandleDraw(ids[0]))

	assert.Len(t, r.Players[0].Hand, 4)
	assert.Equal(t, 1, r.CurrentPlayerIndex)
	assert.Nil(t, ch.lastUnicastOfType(ids[0], EventCanPlayDrawnCard))

	assert.ErrorIs(t, r.HandleDraw(ids[0]), ErrNotYourTurn)
}

func TestCallUnoWithLastCard(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 2)
	r.Players[1].Hand = r.Players[1].Hand[:1]

	require.NoError(t, r.HandleCallUno(ids[1]))

	assert.True(t, r.Players[1].CalledUno)
	calls := ch.broadcastsOfType(EventPlayerCalledUno)
	require.Len(t, calls, 1)
	assert.Equal(t, "Player2", calls[0].PlayerName)

	// Calling again is harmless.
	require.NoError(t, r.HandleCallUno(ids[1]))
	assert.True(t, r.Players[1].CalledUno)
}

func TestCallUnoWithFullHandBecomesCatch(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)
	r.Players[1].Hand = r.Players[1].Hand[:1]

	require.NoError(t, r.HandleCallUno(ids[0]))

	assert.Len(t, r.Players[1].Hand, 1+CatchPenaltyDraws)
	caught := ch.broadcastsOfType(EventPlayerCaught)
	require.Len(t, caught, 1)
	assert.Equal(t, "Player1", caught[0].Catcher)
	assert.Equal(t, "Player2", caught[0].Caught)
}

func TestCatchUnoIgnoresDeclaredPlayers(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)
	r.Players[1].Hand = r.Players[1].Hand[:1]
	r.Players[1].CalledUno = true

	require.NoError(t, r.HandleCatchUno(ids[0]))

	assert.Len(t, r.Players[1].Hand, 1, "a declared player cannot be caught")
	assert.Empty(t, ch.broadcastsOfType(EventPlayerCaught))
}

func TestCatchUnoNoTarget(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 3)

	require.NoError(t, r.HandleCatchUno(ids[0]))

	assert.Empty(t, ch.broadcastsOfType(EventPlayerCaught))
	for _, p := range r.Players {
		assert.Len(t, p.Hand, 3)
	}
}

func TestPlayResetsUnoFlags(t *testing.T) {
	r, ids, _ := setupPlayingRoom(t, 3)
	r.Players[1].CalledUno = true

	require.NoError(t, r.HandlePlay(ids[0], 0, ""))

	assert.False(t, r.Players[1].CalledUno, "a new play invalidates earlier declarations")
}

func TestRemovePlayerHostTransfer(t *testing.T) {
	r, ids, ch := newTestRoom(t, 3)

	removed, empty := r.RemovePlayer(ids[0])
	assert.True(t, removed)
	assert.False(t, empty)
	assert.True(t, r.Players[0].IsHost, "host passes to the next seat")
	assert.Equal(t, ids[1], r.Players[0].ID)

	rosters := ch.broadcastsOfType(EventUpdatePlayers)
	require.NotEmpty(t, rosters)
	assert.Len(t, rosters[len(rosters)-1].Players, 2)
}

func TestRemovePlayerUnknown(t *testing.T) {
	r, _, _ := newTestRoom(t, 2)
	removed, empty := r.RemovePlayer(uuid.New())
	assert.False(t, removed)
	assert.False(t, empty)
}

func TestRemoveLastPlayerEmptiesRoom(t *testing.T) {
	r, ids, _ := newTestRoom(t, 1)
	removed, empty := r.RemovePlayer(ids[0])
	assert.True(t, removed)
	assert.True(t, empty)
}

func TestRemovePlayerAbortsBelowTwo(t *testing.T) {
	r, ids, ch := setupPlayingRoom(t, 2)

	removed, empty := r.RemovePlayer(ids[1])
	assert.True(t, removed)
	assert.False(t, empty)
	assert.Equal(t, StateEnded, r.State)

	ends := ch.broadcastsOfType(EventGameEnded)
	require.Len(t, ends, 1)
	assert.Empty(t, ends[0].Winner)
	assert.Equal(t, "Not enough players", ends[0].Reason)
}

func TestRemovePlayerTurnAdjustment(t *testing.T) {
	t.Run("before the current player", func(t *testing.T) {
		r, ids, _ := setupPlayingRoom(t, 3)
		r.CurrentPlayerIndex = 2
		r.RemovePlayer(ids[0])
		assert.Equal(t, 1, r.CurrentPlayerIndex, "same player still up after the shift")
		assert.Equal(t, ids[2], r.Players[r.CurrentPlayerIndex].ID)
	})

	t.Run("current player mid-roster", func(t *testing.T) {
		r, ids, _ := setupPlayingRoom(t, 3)
		r.CurrentPlayerIndex = 1
		r.RemovePlayer(ids[1])
		assert.Equal(t, 1, r.CurrentPlayerIndex, "the seat shifting in takes the turn")
		assert.Equal(t, ids[2], r.Players[r.CurrentPlayerIndex].ID)
	})

	t.Run("current player in the last seat", func(t *testing.T) {
		r, ids, _ := setupPlayingRoom(t, 3)
		r.CurrentPlayerIndex = 2
		r.RemovePlayer(ids[2])
		assert.Equal(t, 0, r.CurrentPlayerIndex, "turn wraps to the first seat")
		assert.Equal(t, ids[0], r.Players[r.CurrentPlayerIndex].ID)
	})

	t.Run("after the current player", func(t *testing.T) {
		r, ids, _ := setupPlayingRoom(t, 3)
		r.CurrentPlayerIndex = 0
		r.RemovePlayer(ids[2])
		assert.Equal(t, 0, r.CurrentPlayerIndex)
		assert.Equal(t, ids[0], r.Players[r.CurrentPlayerIndex].ID)
	})
}
