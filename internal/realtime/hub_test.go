package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testClient(h *Hub, room string) *Client {
	return newClient(h, room, nil, h.logger)
}

func recv(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return WSMessage{}
	}
}

func requireEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("client %s unexpectedly received %q", c.ID, msg.Event)
	default:
	}
}

func TestHub_BroadcastOnlyReachesRoom(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	a1, a2, b1 := testClient(h, "A"), testClient(h, "A"), testClient(h, "B")
	h.Register(a1)
	h.Register(a2)
	h.Register(b1)

	d := h.Broadcast("A", "new_question", map[string]int{"timer": 15})

	require.Equal(t, 2, d.Attempted)
	require.Equal(t, 2, d.Delivered)
	require.Empty(t, d.Failed)
	for _, c := range []*Client{a1, a2} {
		msg := recv(t, c)
		require.Equal(t, "new_question", msg.Event)
		var body map[string]int
		require.NoError(t, json.Unmarshal(msg.Data, &body))
		require.Equal(t, 15, body["timer"])
	}
	requireEmpty(t, b1)
}

func TestHub_BroadcastToEmptyRoom(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)

	d := h.Broadcast("nobody", "registration_started", nil)
	require.Zero(t, d.Attempted)
	require.Zero(t, d.Delivered)
}

func TestHub_SlowClientDoesNotBlockOthers(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 30*time.Millisecond)
	slow := testClient(h, "R")
	slow.send = make(chan WSMessage) // nobody reads it
	fast := testClient(h, "R")
	h.Register(slow)
	h.Register(fast)

	start := time.Now()
	d := h.Broadcast("R", "game_started", map[string]int{"countdown": 5})

	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, 2, d.Attempted)
	require.Equal(t, 1, d.Delivered)
	require.Equal(t, []string{slow.ID}, d.Failed)
	require.Equal(t, "game_started", recv(t, fast).Event)
	// the broadcast does not evict the failing connection
	require.Equal(t, 2, h.ConnectionCount("R"))
}

func TestHub_ClosedClientIsReportedAsFailed(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), time.Second)
	c := testClient(h, "R")
	h.Register(c)
	c.close()

	d := h.Broadcast("R", "game_started", nil)
	require.Equal(t, []string{c.ID}, d.Failed)
}

func TestHub_PromoteHostReplacesPreviousHost(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	first, second := testClient(h, "R"), testClient(h, "R")
	h.Register(first)
	h.Register(second)

	require.True(t, h.PromoteHost(first))
	require.True(t, h.PromoteHost(first))
	require.True(t, h.PromoteHost(second))
	require.False(t, h.IsHost(first))
	require.True(t, h.IsHost(second))

	require.True(t, h.SendToHost("R", "player_registered", map[string]string{"name": "ana"}))
	require.Equal(t, "player_registered", recv(t, second).Event)
	requireEmpty(t, first)
	require.Equal(t, 2, h.ConnectionCount("R"))
}

func TestHub_PromoteHostRequiresRegistration(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	c := testClient(h, "R")

	require.False(t, h.PromoteHost(c))
	require.False(t, h.SendToHost("R", "player_registered", nil))
}

func TestHub_HostsAreScopedPerRoom(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	hostA, hostB := testClient(h, "A"), testClient(h, "B")
	h.Register(hostA)
	h.Register(hostB)
	h.PromoteHost(hostA)
	h.PromoteHost(hostB)

	h.SendToHost("A", "player_registered", nil)
	require.Equal(t, "player_registered", recv(t, hostA).Event)
	requireEmpty(t, hostB)
}

func TestHub_UnregisterClearsHost(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	host := testClient(h, "R")
	h.Register(host)
	h.PromoteHost(host)

	h.Unregister(host)

	require.False(t, h.SendToHost("R", "player_registered", nil))
	require.Zero(t, h.ConnectionCount("R"))
	require.Zero(t, h.Broadcast("R", "game_started", nil).Attempted)
}

func TestClient_HandleHostConnect(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	c := testClient(h, "R")
	h.Register(c)

	c.handle(WSMessage{Event: EventHostConnect}, nil)

	require.True(t, h.IsHost(c))
	require.Equal(t, EventHostConfirmed, recv(t, c).Event)
}

func TestClient_HandleGetGameStateRepliesOnlyToCaller(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t), 50*time.Millisecond)
	asker, other := testClient(h, "R"), testClient(h, "R")
	h.Register(asker)
	h.Register(other)

	snapshot := func(room string) interface{} {
		return map[string]interface{}{"room": room, "is_game_started": true}
	}
	asker.handle(WSMessage{Event: EventGetGameState}, snapshot)

	msg := recv(t, asker)
	require.Equal(t, EventGameState, msg.Event)
	var body struct {
		State map[string]interface{} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	require.Equal(t, "R", body.State["room"])
	requireEmpty(t, other)
}
