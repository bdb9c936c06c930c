// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/game"
	"github.com/wildfour/uno/internal/metrics"
	"github.com/wildfour/uno/internal/middleware"
	"github.com/wildfour/uno/internal/models"
	"github.com/wildfour/uno/internal/session"
)

// ClientMessage is the envelope for every intent a client sends. Fields
// beyond Type are read per intent and ignored otherwise.
type ClientMessage struct {
	Type string `json:"type"`

	Name string `json:"name,omitempty"` // createRoom, joinRoom
	Code string `json:"code,omitempty"` // joinRoom

	CardIndex   *int   `json:"cardIndex,omitempty"`   // playCard
	ChosenColor string `json:"chosenColor,omitempty"` // playCard, playDrawnCard

	TargetID string `json:"targetId,omitempty"` // catchUno
}

// WSHandler upgrades the connection, establishes the guest identity,
// registers the client with the hub, and runs the read loop until the
// client goes away. Every exit path funnels through the session manager's
// disconnect handling.
func WSHandler(logger *logrus.Logger, hub *Hub, manager *session.Manager, mets *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := EnsureGuest(w, r)
		if err != nil {
			logger.Warnf("guest identity setup failed: %v", err)
			http.Error(w, "could not establish session", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"uno"},
			OriginPatterns: []string{"*"}, // Adjust for production deployments.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		if c.Subprotocol() != "uno" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the uno subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cleanup := hub.Register(ctx, playerID, c)
		if mets != nil {
			mets.PlayersOnline.Inc()
		}

		readErr := readIntents(ctx, c, playerID, manager, logger, mets)

		manager.HandleDisconnect(playerID)
		cleanup()
		if mets != nil {
			mets.PlayersOnline.Dec()
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readIntents decodes and routes client messages until the connection
// closes. Returns the terminal read error (nil for a normal closure).
func readIntents(ctx context.Context, c *websocket.Conn, playerID uuid.UUID, manager *session.Manager, logger *logrus.Logger, mets *metrics.Metrics) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid JSON from player %s: %v", playerID, err)
			hubError(manager, playerID, "Invalid JSON format")
			continue
		}

		logger.Debugf("intent %q from player %s", msg.Type, playerID)
		if mets != nil {
			mets.IntentsReceived.WithLabelValues(msg.Type).Inc()
		}

		switch msg.Type {
		case "createRoom":
			manager.CreateRoom(playerID, playerName(msg.Name))
		case "joinRoom":
			manager.JoinRoom(playerID, strings.ToUpper(strings.TrimSpace(msg.Code)), playerName(msg.Name))
		case "startGame":
			manager.StartGame(playerID)
		case "playCard":
			if msg.CardIndex == nil {
				hubError(manager, playerID, "playCard requires cardIndex")
				continue
			}
			manager.PlayCard(playerID, *msg.CardIndex, models.Color(msg.ChosenColor))
		case "drawCard":
			manager.DrawCard(playerID)
		case "playDrawnCard":
			manager.PlayDrawnCard(playerID, models.Color(msg.ChosenColor))
		case "callUno":
			manager.CallUno(playerID)
		case "catchUno":
			target, _ := uuid.Parse(msg.TargetID)
			manager.CatchUno(playerID, target)
		case "ping":
			// Liveness probe; answered directly, not a game intent.
			replyPong(manager, playerID)
		default:
			logger.Warnf("unknown intent %q from player %s", msg.Type, playerID)
			hubError(manager, playerID, "Unknown intent type: "+msg.Type)
		}
	}
}

// playerName trims the submitted display name, substituting a placeholder
// for blank submissions.
func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return name
}

func hubError(manager *session.Manager, playerID uuid.UUID, message string) {
	manager.SendError(playerID, message)
}

func replyPong(manager *session.Manager, playerID uuid.UUID) {
	manager.Send(playerID, game.Event{Type: game.EventPong})
}
