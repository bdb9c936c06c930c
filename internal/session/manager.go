// internal/session/manager.go
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/game"
	"github.com/wildfour/uno/internal/metrics"
	"github.com/wildfour/uno/internal/models"
)

// Transport is the delivery surface the manager needs from the connection
// layer: per-player unicast plus room-wide fan-out. The websocket Hub
// implements it; tests substitute a recording fake.
type Transport interface {
	// Join adds a player to a room's delivery group.
	Join(playerID uuid.UUID, code string)
	// Leave removes a player from a room's delivery group.
	Leave(playerID uuid.UUID, code string)
	// Unicast delivers an event to one player.
	Unicast(playerID uuid.UUID, ev game.Event)
	// BroadcastToRoom delivers an event to every player joined to code.
	BroadcastToRoom(code string, ev game.Event)
}

// roomChannel narrows the Transport to one room, satisfying game.RoomChannel
// so the game core never sees codes or sockets.
type roomChannel struct {
	transport Transport
	code      string
}

func (c roomChannel) Unicast(playerID uuid.UUID, ev game.Event) {
	c.transport.Unicast(playerID, ev)
}

func (c roomChannel) Broadcast(ev game.Event) {
	c.transport.BroadcastToRoom(c.code, ev)
}

const (
	roomCodeLength  = 6
	roomCodeCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Manager routes player intents to their rooms. It owns room creation and
// teardown; the rooms own all game mutation. Validation failures go back to
// the originating player as an error event, never to the room.
type Manager struct {
	registry  *Registry
	transport Transport
	recorder  game.Recorder
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewManager wires a manager to its injected collaborators. recorder and
// mets may be nil when history or metrics are disabled.
func NewManager(registry *Registry, transport Transport, recorder game.Recorder, mets *metrics.Metrics, logger *logrus.Logger) *Manager {
	return &Manager{
		registry:  registry,
		transport: transport,
		recorder:  recorder,
		metrics:   mets,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom opens a room with the caller as host and announces the code.
func (m *Manager) CreateRoom(playerID uuid.UUID, name string) {
	for {
		code := m.generateRoomCode()
		room := game.NewRoom(code, roomChannel{transport: m.transport, code: code}, m.recorder)
		room.OnEnded = m.onRoomEnded
		if !m.registry.Insert(room, playerID) {
			// Code collision; roll a fresh one.
			continue
		}
		m.transport.Join(playerID, code)
		if err := room.AddPlayer(playerID, name); err != nil {
			// Unreachable for a fresh room, but surface it rather than
			// leaving a half-registered room behind.
			m.registry.Unbind(playerID)
			m.registry.Delete(code)
			m.transport.Leave(playerID, code)
			m.sendError(playerID, err)
			return
		}
		m.logger.WithFields(logrus.Fields{"room": code, "player": playerID, "name": name}).Info("room created")
		m.transport.Unicast(playerID, game.Event{Type: game.EventRoomCreated, Code: code, PlayerID: playerID})
		m.updateRoomGauge()
		return
	}
}

// JoinRoom seats the caller in an existing waiting room.
func (m *Manager) JoinRoom(playerID uuid.UUID, code, name string) {
	room, exists := m.registry.Get(code)
	if !exists {
		m.sendError(playerID, game.ErrRoomNotFound)
		return
	}
	if err := room.AddPlayer(playerID, name); err != nil {
		m.sendError(playerID, err)
		return
	}
	m.registry.Bind(playerID, code)
	m.transport.Join(playerID, code)
	m.logger.WithFields(logrus.Fields{"room": code, "player": playerID, "name": name}).Info("player joined room")
	m.transport.Unicast(playerID, game.Event{Type: game.EventRoomJoined, Code: code, PlayerID: playerID})
	// The seat list was broadcast before this player's delivery-group join;
	// repeat it so the joiner sees the roster too.
	room.BroadcastPlayerList()
}

// StartGame begins play in the caller's room. A caller with no room is a
// stale intent and is silently dropped.
func (m *Manager) StartGame(playerID uuid.UUID) {
	room, exists := m.registry.RoomFor(playerID)
	if !exists {
		return
	}
	if err := room.Start(playerID); err != nil {
		m.sendError(playerID, err)
	}
}

// PlayCard routes a play intent to the caller's room.
func (m *Manager) PlayCard(playerID uuid.UUID, cardIndex int, chosenColor models.Color) {
	room, exists := m.registry.RoomFor(playerID)
	if !exists {
		return
	}
	if err := room.HandlePlay(playerID, cardIndex, chosenColor); err != nil {
		m.sendError(playerID, err)
	}
}

// DrawCard routes a draw intent to the caller's room.
func (m *Manager) DrawCard(playerID uuid.UUID) {
	room, exists := m.registry.RoomFor(playerID)
	if !exists {
		return
	}
	if err := room.HandleDraw(playerID); err != nil {
		m.sendError(playerID, err)
	}
}

// PlayDrawnCard routes a play of the just-drawn card to the caller's room.
func (m *Manager) PlayDrawnCard(playerID uuid.UUID, chosenColor models.Color) {
	room, exists := m.registry.RoomFor(playerID)
	if !exists {
		return
	}
	if err := room.HandlePlayDrawnCard(playerID, chosenColor); err != nil {
		m.sendError(playerID, err)
	}
}

// CallUno routes an UNO declaration to the caller's room.
func (m *Manager) CallUno(playerID uuid.UUID) {
	room, exists := m.registry.RoomFor(playerID)
	if !exists {
		return
	}
	if err := room.HandleCallUno(playerID); err != nil {
		m.sendError(playerID, err)
	}
}

// CatchUno routes an explicit catch intent to the caller's room. The target
// argument is accepted for protocol compatibility; detection is automatic.
func (m *Manager) CatchUno(playerID uuid.UUID, _ uuid.UUID) {
	room, exists := m.registry.RoomFor(playerID)
	if !exists {
		return
	}
	if err := room.HandleCatchUno(playerID); err != nil {
		m.sendError(playerID, err)
	}
}

// HandleDisconnect unseats a departed player and tears the room down if it
// emptied. Disconnects racing with room teardown are no-ops.
func (m *Manager) HandleDisconnect(playerID uuid.UUID) {
	room, exists := m.registry.RoomFor(playerID)
	m.registry.Unbind(playerID)
	if !exists {
		return
	}
	m.transport.Leave(playerID, room.Code)
	removed, empty := room.RemovePlayer(playerID)
	if !removed {
		return
	}
	if empty {
		m.registry.Delete(room.Code)
		m.logger.WithField("room", room.Code).Info("room emptied, deleted")
		m.updateRoomGauge()
		return
	}
	m.logger.WithFields(logrus.Fields{"room": room.Code, "player": playerID}).Info("player left room")
}

// onRoomEnded is installed as Room.OnEnded.
func (m *Manager) onRoomEnded(code, winner string) {
	if m.metrics != nil {
		m.metrics.GamesCompleted.Inc()
	}
	m.logger.WithFields(logrus.Fields{"room": code, "winner": winner}).Info("game ended")
}

// generateRoomCode rolls a 6-character uppercase alphanumeric code. The
// caller retries on registry collision.
func (m *Manager) generateRoomCode() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeCharset[m.rng.Intn(len(roomCodeCharset))]
	}
	return string(code)
}

func (m *Manager) sendError(playerID uuid.UUID, err error) {
	m.transport.Unicast(playerID, game.Event{Type: game.EventError, Message: err.Error()})
}

// SendError delivers an error event to one player. Used by the connection
// layer for protocol-level failures that never reach a room.
func (m *Manager) SendError(playerID uuid.UUID, message string) {
	m.transport.Unicast(playerID, game.Event{Type: game.EventError, Message: message})
}

// Send delivers an arbitrary event to one player.
func (m *Manager) Send(playerID uuid.UUID, ev game.Event) {
	m.transport.Unicast(playerID, ev)
}

func (m *Manager) updateRoomGauge() {
	if m.metrics != nil {
		m.metrics.RoomsActive.Set(float64(m.registry.Count()))
	}
}
