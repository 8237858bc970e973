// internal/handlers/gateway.go
package handlers

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Gateway is the realtime channel: it tracks which websocket connections are
// attached to which lobby and fans events out to them. It is kept separate
// from the lobby store: the store owns session state, the gateway only owns
// sockets, and the two lock independently.
type Gateway struct {
	mu    sync.Mutex
	rooms map[string]map[uuid.UUID]*Conn // lobbyID -> playerID -> conn
}

// Conn is a single player's presence on the realtime channel.
type Conn struct {
	PlayerID uuid.UUID
	Cancel   context.CancelFunc
	OutChan  chan map[string]interface{}

	mu     sync.Mutex
	closed bool
}

// Write pushes a message onto the connection's OutChan non-blockingly. A full
// channel drops the message; a slow client must not stall the rest of the
// lobby. Writes after closeChan are silently discarded.
func (c *Conn) Write(msg map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("Gateway: OutChan for player %s full, dropped message type %q", c.PlayerID, msgType)
	}
}

// closeChan closes the outgoing channel exactly once, stopping the write
// pump. Racing Writes see the closed flag instead of a closed channel.
func (c *Conn) closeChan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.OutChan)
	}
}

// WriteError is a convenience to send an error event to one client.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

func NewGateway() *Gateway {
	return &Gateway{rooms: make(map[string]map[uuid.UUID]*Conn)}
}

// Register attaches a connection to a lobby's room. A lingering connection
// for the same player is displaced: its channel is closed and its context
// cancelled so the stale pumps wind down.
func (g *Gateway) Register(lobbyID string, conn *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[lobbyID]
	if !ok {
		room = make(map[uuid.UUID]*Conn)
		g.rooms[lobbyID] = room
	}
	if old, ok := room[conn.PlayerID]; ok && old != conn {
		old.closeChan()
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	room[conn.PlayerID] = conn
}

// Unregister detaches a connection, ignoring the call if a newer connection
// for the same player has already displaced it. Empty rooms are pruned.
func (g *Gateway) Unregister(lobbyID string, conn *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[lobbyID]
	if !ok {
		return
	}
	if current, ok := room[conn.PlayerID]; !ok || current != conn {
		return
	}
	delete(room, conn.PlayerID)
	conn.closeChan()
	if len(room) == 0 {
		delete(g.rooms, lobbyID)
	}
}

// Broadcast sends a message to every connection in a lobby's room.
func (g *Gateway) Broadcast(lobbyID string, msg map[string]interface{}) {
	for _, conn := range g.connsFor(lobbyID, uuid.Nil) {
		conn.Write(msg)
	}
}

// BroadcastExcept sends a message to everyone in the room except one player,
// e.g. the "someone joined" notice that excludes the joiner.
func (g *Gateway) BroadcastExcept(lobbyID string, except uuid.UUID, msg map[string]interface{}) {
	for _, conn := range g.connsFor(lobbyID, except) {
		conn.Write(msg)
	}
}

// connsFor snapshots a room's connections under the lock; sends happen
// outside it (Write is non-blocking regardless).
func (g *Gateway) connsFor(lobbyID string, except uuid.UUID) []*Conn {
	g.mu.Lock()
	defer g.mu.Unlock()

	room := g.rooms[lobbyID]
	conns := make([]*Conn, 0, len(room))
	for id, conn := range room {
		if id == except {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}
