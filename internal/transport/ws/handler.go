package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivialive/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades connections, authenticates them against the room and feeds
// inbound client actions to the game and voting services.
type Handler struct {
	hub       *Hub
	authSvc   *service.AuthService
	gameSvc   *service.GameService
	votingSvc *service.VotingService
	timers    *voteTimers
	logger    zerolog.Logger
}

func NewHandler(hub *Hub, authSvc *service.AuthService, gameSvc *service.GameService, votingSvc *service.VotingService, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		authSvc:   authSvc,
		gameSvc:   gameSvc,
		votingSvc: votingSvc,
		timers:    newVoteTimers(),
		logger:    logger,
	}
}

// RoomWS handles GET /v1/ws/rooms/{code}. The token query parameter carries
// either a player token bound to this room or a host token.
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	var playerID string
	var isHost bool
	if claims, err := h.authSvc.ValidatePlayerToken(token); err == nil && claims.RoomCode != "" {
		if claims.RoomCode != code {
			http.Error(w, "token not valid for this room", http.StatusForbidden)
			return
		}
		playerID = claims.PlayerID
	} else if claims, err := h.authSvc.ValidateHostToken(token); err == nil {
		playerID = claims.HostID
		isHost = true
	} else {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &Connection{
		RoomCode: code,
		PlayerID: playerID,
		IsHost:   isHost,
		Send:     make(chan []byte, 256),
		Hub:      h.hub,
	}

	h.hub.Register(conn)
	h.logger.Info().Str("room", code).Str("player", playerID).Bool("host", isHost).
		Msg("websocket connected")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug().Err(err).Str("room", conn.RoomCode).Msg("websocket closed")
			}
			break
		}
		h.dispatch(conn, data)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
