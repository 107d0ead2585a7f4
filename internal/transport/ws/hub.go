package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Message is the WebSocket envelope format. Event names and payload shapes
// live in internal/model; the hub only marshals and fans out.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per room. A single goroutine drains the
// broadcast queue, so events for one room reach its subscribers in the order
// the engine committed them.
type Hub struct {
	rooms map[string]map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *outbound

	logger zerolog.Logger
}

// Connection represents one subscriber of a room's channel.
type Connection struct {
	RoomCode string
	PlayerID string
	IsHost   bool
	Send     chan []byte
	Hub      *Hub
}

type outbound struct {
	roomCode string
	playerID string // non-empty: deliver to this player's connections only
	message  *Message
}

func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *outbound, 256),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.rooms[conn.RoomCode] == nil {
				h.rooms[conn.RoomCode] = make(map[*Connection]struct{})
			}
			h.rooms[conn.RoomCode][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug().Str("room", conn.RoomCode).Str("player", conn.PlayerID).
				Msg("connection registered")

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.rooms[conn.RoomCode]; ok {
				if _, ok := subs[conn]; ok {
					delete(subs, conn)
					close(conn.Send)
					if len(subs) == 0 {
						delete(h.rooms, conn.RoomCode)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, err := json.Marshal(msg.message)
			if err != nil {
				h.mu.RUnlock()
				h.logger.Error().Err(err).Str("event", msg.message.Event).Msg("failed to marshal event")
				continue
			}
			for conn := range h.rooms[msg.roomCode] {
				if msg.playerID != "" && conn.PlayerID != msg.playerID {
					continue
				}
				select {
				case conn.Send <- data:
				default:
					// Drop for this subscriber rather than block the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection to its room's subscriber set.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

func envelope(event string, payload any) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Event: event, Payload: data}
}

// BroadcastToRoom sends an event to every subscriber of a room (implements
// service.Broadcaster).
func (h *Hub) BroadcastToRoom(roomCode string, event string, payload any) {
	h.broadcast <- &outbound{roomCode: roomCode, message: envelope(event, payload)}
}

// BroadcastToPlayer sends an event to one player's connections only
// (implements service.Broadcaster).
func (h *Hub) BroadcastToPlayer(roomCode, playerID string, event string, payload any) {
	h.broadcast <- &outbound{roomCode: roomCode, playerID: playerID, message: envelope(event, payload)}
}

// DisconnectRoom closes every connection in a room (implements
// service.Broadcaster).
func (h *Hub) DisconnectRoom(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.rooms[roomCode] {
		close(conn.Send)
	}
	delete(h.rooms, roomCode)
}
