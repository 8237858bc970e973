// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tablespin/tablespin/internal/lobby"
)

// LobbyWSHandler attaches a client to a lobby's realtime channel at
// /ws/lobby/{id}. Attaching is an idempotent join: a member reconnecting gets
// a fresh state snapshot without a duplicate player_joined event, a
// newcomer triggers one for everybody else.
func LobbyWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/ws/lobby/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing lobby_id", http.StatusBadRequest)
			return
		}
		lobbyID := lobby.NormalizeCode(pathParts[0])

		// Session must be resolved before the upgrade so a fresh cookie can
		// still ride the handshake response.
		playerID, err := EnsureSession(w, r)
		if err != nil {
			logger.Warnf("session setup failed for lobby %s: %v", lobbyID, err)
			http.Error(w, "could not establish session", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			return
		}

		st, joined, err := s.Lobbies.EnsureMember(lobbyID, playerID)
		if err != nil {
			c.Close(InvalidLobbyCodeError, "lobby not found or expired")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := &Conn{
			PlayerID: playerID,
			Cancel:   cancel,
			OutChan:  make(chan map[string]interface{}, 16),
		}
		s.Gateway.Register(lobbyID, conn)

		// The joiner gets their own snapshot; everyone else hears about the
		// join only when it actually was one.
		if joined {
			s.Gateway.BroadcastExcept(lobbyID, playerID, playerJoinedPayload(playerID, st.PlayerCount))
		}
		conn.Write(lobbyStatePayload(st, playerID))

		logger.Infof("Player %v (%s) attached to lobby %v", playerID, remoteAddr, lobbyID)

		go writePump(ctx, c, conn, logger)
		readPump(ctx, c, s, lobbyID, conn, logger)

		// Socket gone. Detach from the gateway only: lobby membership outlives
		// the connection and is released by an explicit leave or by expiry.
		logger.Infof("Player %v detached from lobby %v", playerID, lobbyID)
		s.Gateway.Unregister(lobbyID, conn)
	}
}

// readPump consumes inbound events until the connection dies or the client
// leaves the lobby.
func readPump(ctx context.Context, c *websocket.Conn, s *Server, lobbyID string, conn *Conn, logger *logrus.Logger) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Lobby %s: websocket closed normally for player %v", lobbyID, conn.PlayerID)
			} else if !errors.Is(err, context.Canceled) {
				logger.Warnf("Lobby %s: read error for player %v: %v", lobbyID, conn.PlayerID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("Lobby %s: ignoring non-text message type %d from player %v", lobbyID, typ, conn.PlayerID)
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("Lobby %s: invalid json from player %v: %v", lobbyID, conn.PlayerID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		action, _ := packet["type"].(string)
		switch action {
		case "leave_lobby":
			st, live := s.Lobbies.Leave(lobbyID, conn.PlayerID)
			s.Gateway.Unregister(lobbyID, conn)
			if live {
				s.Gateway.Broadcast(lobbyID, playerLeftPayload(conn.PlayerID, st.PlayerCount))
			}
			c.Close(websocket.StatusNormalClosure, "left lobby")
			return

		case "host_update":
			upd, err := stateUpdateFromPacket(packet)
			if err != nil {
				conn.WriteError(err.Error())
				continue
			}
			st, err := s.Lobbies.UpdateState(lobbyID, conn.PlayerID, upd)
			switch {
			case errors.Is(err, lobby.ErrNotFound):
				conn.WriteError("Lobby not found or expired")
				continue
			case errors.Is(err, lobby.ErrNotHost):
				conn.WriteError("Only the host can update lobby state")
				continue
			case err != nil:
				conn.WriteError("Failed to update lobby state")
				continue
			}
			s.Gateway.Broadcast(lobbyID, stateUpdatedPayload(st))
			if upd.Selection != nil {
				s.recordSelection(st)
			}

		case "get_state":
			if st, found := s.Lobbies.Get(lobbyID); found {
				conn.Write(lobbyStatePayload(st, conn.PlayerID))
			} else {
				conn.WriteError("Lobby not found or expired")
			}

		default:
			logger.Warnf("Lobby %s: unknown action %q from player %v", lobbyID, action, conn.PlayerID)
			conn.WriteError(fmt.Sprintf("Unknown action type: %s", action))
		}
	}
}

// stateUpdateFromPacket maps the optional host_update fields onto a partial
// StateUpdate: a key absent from the packet stays absent from the update.
func stateUpdateFromPacket(packet map[string]interface{}) (lobby.StateUpdate, error) {
	var upd lobby.StateUpdate

	if raw, ok := packet["recommendations"]; ok && raw != nil {
		list, ok := raw.([]interface{})
		if !ok {
			return lobby.StateUpdate{}, fmt.Errorf("recommendations must be a list")
		}
		recs := make([]map[string]interface{}, 0, len(list))
		for _, item := range list {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return lobby.StateUpdate{}, fmt.Errorf("recommendations must be a list of objects")
			}
			recs = append(recs, entry)
		}
		upd.Recommendations = recs
	}
	if raw, ok := packet["selection"]; ok && raw != nil {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return lobby.StateUpdate{}, fmt.Errorf("selection must be an object")
		}
		upd.Selection = entry
	}
	if raw, ok := packet["location"]; ok && raw != nil {
		v, ok := raw.(string)
		if !ok {
			return lobby.StateUpdate{}, fmt.Errorf("location must be a string")
		}
		upd.Location = &v
	}
	if raw, ok := packet["mood"]; ok && raw != nil {
		v, ok := raw.(string)
		if !ok {
			return lobby.StateUpdate{}, fmt.Errorf("mood must be a string")
		}
		upd.Mood = &v
	}
	return upd, nil
}

// writePump drains the connection's OutChan onto the socket and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing msg for player %v: %v", conn.PlayerID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for player %v: %v", conn.PlayerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping to player %v failed: %v", conn.PlayerID, err)
				return
			}
		}
	}
}
