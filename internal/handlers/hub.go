// internal/handlers/hub.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/game"
)

// writeTimeout bounds a single websocket write so one stalled client cannot
// back up delivery to the rest of a room.
const writeTimeout = 3 * time.Second

// outChanSize buffers per-client outbound events; the game emits short
// bursts (direction change + skip + per-player state) after a single play.
const outChanSize = 32

// client is one connected websocket with its outbound pump state.
type client struct {
	playerID uuid.UUID
	out      chan game.Event
	cancel   context.CancelFunc
}

// send queues ev without blocking; a full channel drops the event and logs.
// A stalled client is eventually reaped by its read loop.
func (c *client) send(ev game.Event, logger *logrus.Logger) {
	select {
	case c.out <- ev:
	default:
		logger.WithFields(logrus.Fields{
			"player": c.playerID,
			"event":  ev.Type,
		}).Warn("client outbound channel full, event dropped")
	}
}

// Hub tracks live connections and room delivery groups. It implements
// session.Transport: the session layer addresses players and codes, the hub
// turns that into websocket writes.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*client
	rooms   map[string]map[uuid.UUID]struct{}
	logger  *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		rooms:   make(map[string]map[uuid.UUID]struct{}),
		logger:  logger,
	}
}

// Register adds a connection and starts its write pump. The returned cleanup
// must run when the connection's read loop exits.
func (h *Hub) Register(ctx context.Context, playerID uuid.UUID, conn *websocket.Conn) (cleanup func()) {
	ctx, cancel := context.WithCancel(ctx)
	cl := &client{
		playerID: playerID,
		out:      make(chan game.Event, outChanSize),
		cancel:   cancel,
	}

	h.mu.Lock()
	h.clients[playerID] = cl
	h.mu.Unlock()

	go h.writePump(ctx, conn, cl)

	return func() {
		h.mu.Lock()
		if current, ok := h.clients[playerID]; ok && current == cl {
			delete(h.clients, playerID)
		}
		h.mu.Unlock()
		cancel()
	}
}

// writePump serializes queued events onto the websocket with a per-write
// timeout. Exits on context cancellation; write failures are left to the
// read loop to detect and tear down.
func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, cl *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-cl.out:
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.WithFields(logrus.Fields{"player": cl.playerID, "event": ev.Type}).
					Errorf("failed to marshal event: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.WithField("player", cl.playerID).Debugf("websocket write failed: %v", err)
			}
		}
	}
}

// Join adds a player to a room's delivery group.
func (h *Hub) Join(playerID uuid.UUID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		h.rooms[code] = members
	}
	members[playerID] = struct{}{}
}

// Leave removes a player from a room's delivery group, dropping the group
// when it empties.
func (h *Hub) Leave(playerID uuid.UUID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[code]; ok {
		delete(members, playerID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Unicast delivers ev to one player, if connected.
func (h *Hub) Unicast(playerID uuid.UUID, ev game.Event) {
	h.mu.Lock()
	cl, ok := h.clients[playerID]
	h.mu.Unlock()
	if ok {
		cl.send(ev, h.logger)
	}
}

// BroadcastToRoom delivers ev to every connected member of the room.
func (h *Hub) BroadcastToRoom(code string, ev game.Event) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.rooms[code]))
	for playerID := range h.rooms[code] {
		if cl, ok := h.clients[playerID]; ok {
			targets = append(targets, cl)
		}
	}
	h.mu.Unlock()

	for _, cl := range targets {
		cl.send(ev, h.logger)
	}
}
