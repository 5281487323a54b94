package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Inbound and outbound event names handled by the connection itself.
const (
	EventHostConnect   = "host_connect"
	EventHostConfirmed = "host_confirmed"
	EventGetGameState  = "get_game_state"
	EventGameState     = "game_state"
)

var (
	ErrSendTimeout  = errors.New("send timeout")
	ErrClientClosed = errors.New("client closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SnapshotFunc returns a point-in-time copy of a room's game state.
type SnapshotFunc func(room string) interface{}

// Client represents a single WebSocket connection in a room.
type Client struct {
	ID       string
	Room     string
	JoinedAt time.Time
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

func newClient(hub *Hub, room string, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		ID:       uuid.New().String(),
		Room:     room,
		JoinedAt: time.Now(),
		hub:      hub,
		conn:     conn,
		send:     make(chan WSMessage, 256),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger, snapshot SnapshotFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := strings.TrimSpace(c.Query("room"))
		if room == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(hub, room, conn, logger)
		hub.Register(client)
		go client.writePump()
		client.readPump(snapshot)
	}
}

// deliver queues msg for the write pump, giving up after timeout or once the client is closed.
func (c *Client) deliver(msg WSMessage, timeout time.Duration) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-t.C:
		return ErrSendTimeout
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readPump(snapshot SnapshotFunc) {
	defer func() {
		c.hub.Unregister(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read", zap.String("client_id", c.ID), zap.Error(err))
			}
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.handle(msg, snapshot)
	}
}

func (c *Client) handle(msg WSMessage, snapshot SnapshotFunc) {
	switch msg.Event {
	case EventHostConnect:
		if c.hub.PromoteHost(c) {
			c.hub.SendToClient(c.Room, c.ID, EventHostConfirmed, map[string]string{
				"message": "You are now the host",
			})
		}
	case EventGetGameState:
		if snapshot != nil {
			c.hub.SendToClient(c.Room, c.ID, EventGameState, map[string]interface{}{
				"state": snapshot(c.Room),
			})
		}
	default:
		// ignore
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
