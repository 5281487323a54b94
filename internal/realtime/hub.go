package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// DefaultSendTimeout bounds a single delivery to one connection.
	DefaultSendTimeout = 2 * time.Second
)

// Delivery is the per-connection outcome of one broadcast.
type Delivery struct {
	Room      string
	Event     string
	Attempted int
	Delivered int
	Failed    []string // client IDs that did not accept the message in time
}

// Hub maintains room -> set of connections and the host connection of each room.
type Hub struct {
	// room -> map[clientID]*Client
	rooms       map[string]map[string]*Client
	hosts       map[string]*Client
	mu          sync.RWMutex
	logger      *zap.Logger
	sendTimeout time.Duration
}

// NewHub creates a new WebSocket hub. A non-positive sendTimeout uses DefaultSendTimeout.
func NewHub(logger *zap.Logger, sendTimeout time.Duration) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Hub{
		rooms:       make(map[string]map[string]*Client),
		hosts:       make(map[string]*Client),
		logger:      logger,
		sendTimeout: sendTimeout,
	}
}

// Register adds a client to its room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.Room] == nil {
		h.rooms[c.Room] = make(map[string]*Client)
	}
	h.rooms[c.Room][c.ID] = c
	count := len(h.rooms[c.Room])
	h.mu.Unlock()
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("room", c.Room), zap.Int("connections", count))
}

// PromoteHost makes c the host of its room, replacing any previous host.
// The previous host stays connected; it only loses the host role.
func (h *Hub) PromoteHost(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[c.Room][c.ID]; !ok {
		return false
	}
	prev := h.hosts[c.Room]
	h.hosts[c.Room] = c
	if prev != nil && prev != c {
		h.logger.Info("room host replaced", zap.String("room", c.Room), zap.String("previous", prev.ID), zap.String("client_id", c.ID))
	}
	return true
}

// Unregister removes a client from its room and clears the host pointer if it was the host.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.Room]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.Room)
		}
	}
	if h.hosts[c.Room] == c {
		delete(h.hosts, c.Room)
	}
	h.mu.Unlock()
	h.logger.Debug("client left room", zap.String("client_id", c.ID), zap.String("room", c.Room))
}

// Broadcast sends an event to every client currently registered in room.
// Sends run concurrently, each bounded by the hub's send timeout; failures are
// logged and reported but never abort delivery to the others.
func (h *Hub) Broadcast(room, event string, payload interface{}) Delivery {
	d := Delivery{Room: room, Event: event}
	msg, err := newMessage(event, payload)
	if err != nil {
		h.logger.Error("encode broadcast payload", zap.String("room", room), zap.String("event", event), zap.Error(err))
		return d
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	d.Attempted = len(clients)
	if len(clients) == 0 {
		return d
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			err := c.deliver(msg, h.sendTimeout)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.Failed = append(d.Failed, c.ID)
				h.logger.Warn("broadcast send failed",
					zap.String("room", room), zap.String("event", event),
					zap.String("client_id", c.ID), zap.Error(err))
				return
			}
			d.Delivered++
		}(c)
	}
	wg.Wait()

	h.logger.Debug("broadcast",
		zap.String("room", room), zap.String("event", event),
		zap.Int("attempted", d.Attempted), zap.Int("delivered", d.Delivered))
	return d
}

// SendToHost delivers an event to the room's host only. It is a no-op without a host.
func (h *Hub) SendToHost(room, event string, payload interface{}) bool {
	h.mu.RLock()
	host := h.hosts[room]
	h.mu.RUnlock()
	if host == nil {
		return false
	}
	return h.send(host, event, payload)
}

// SendToClient sends a message to a single client in a room.
func (h *Hub) SendToClient(room, clientID, event string, payload interface{}) bool {
	h.mu.RLock()
	c := h.rooms[room][clientID]
	h.mu.RUnlock()
	if c == nil {
		return false
	}
	return h.send(c, event, payload)
}

// IsHost reports whether c is currently the host of its room.
func (h *Hub) IsHost(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hosts[c.Room] == c
}

// ConnectionCount returns the number of connected clients in a room.
func (h *Hub) ConnectionCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) send(c *Client, event string, payload interface{}) bool {
	msg, err := newMessage(event, payload)
	if err != nil {
		h.logger.Error("encode message", zap.String("event", event), zap.Error(err))
		return false
	}
	if err := c.deliver(msg, h.sendTimeout); err != nil {
		h.logger.Warn("send failed", zap.String("room", c.Room), zap.String("event", event), zap.String("client_id", c.ID), zap.Error(err))
		return false
	}
	return true
}

func newMessage(event string, payload interface{}) (WSMessage, error) {
	var data []byte
	switch v := payload.(type) {
	case nil:
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return WSMessage{}, err
		}
	}
	return WSMessage{Event: event, Data: data}, nil
}
