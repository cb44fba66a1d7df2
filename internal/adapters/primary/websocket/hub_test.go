package websocket

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func attach(t *testing.T, hub *Hub, identity string) *Client {
	t.Helper()
	c := NewClient(hub, nil, identity, hub.logger)
	require.True(t, hub.Attach(c))
	return c
}

func receive(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.Send:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_TicketRoomRouting(t *testing.T) {
	hub := newTestHub(t)
	watcher := attach(t, hub, "acc-1")
	other := attach(t, hub, "acc-2")

	watcher.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketKey":"PROJ-1"}}`))
	other.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketKey":"PROJ-2"}}`))
	assert.Equal(t, 1, hub.GetClientsInRoom("PROJ-1"))

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventCommentAdded, TicketKey: "PROJ-1"}))

	ev := receive(t, watcher)
	assert.Equal(t, domain.EventCommentAdded, ev.Type)
	assert.Equal(t, "PROJ-1", ev.TicketKey)
	assertNothing(t, other)
}

func TestHub_DashboardRoomSeesEverythingOnce(t *testing.T) {
	hub := newTestHub(t)
	c := attach(t, hub, "acc-1")

	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_DASHBOARD"}`))
	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketKey":"PROJ-9"}}`))

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventTriageStateChanged, TicketKey: "PROJ-9"}))
	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventFieldUpdated, TicketKey: "PROJ-3"}))

	assert.Equal(t, domain.EventTriageStateChanged, receive(t, c).Type)
	assert.Equal(t, domain.EventFieldUpdated, receive(t, c).Type)
	assertNothing(t, c)
}

func TestHub_InvalidTicketKeyIgnored(t *testing.T) {
	hub := newTestHub(t)
	c := attach(t, hub, "acc-1")

	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketKey":"not a key"}}`))
	c.handleIncomingMessage([]byte(`{not json`))

	assert.Empty(t, c.GetSubscriptions())
	assert.Equal(t, 0, hub.GetRoomCount())
}

func TestHub_UnsubscribeAndUnregister(t *testing.T) {
	hub := newTestHub(t)
	c := attach(t, hub, "acc-1")
	second := attach(t, hub, "acc-1")

	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketKey":"PROJ-1"}}`))
	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_DASHBOARD"}`))
	c.handleIncomingMessage([]byte(`{"type":"UNSUBSCRIBE_FROM_DASHBOARD"}`))
	assert.Equal(t, []string{"PROJ-1"}, c.GetSubscriptions())

	hub.detach(c)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.GetRoomCount())

	_, ok := <-c.Send
	assert.False(t, ok, "send channel should be closed")
	assert.False(t, second.HasSubscription("PROJ-1"))
}

func TestHub_PingGetsPong(t *testing.T) {
	hub := newTestHub(t)
	c := attach(t, hub, "acc-1")

	c.handleIncomingMessage([]byte(`{"type":"PING"}`))
	assert.Equal(t, domain.EventType("PONG"), receive(t, c).Type)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	c := attach(t, hub, "acc-1")

	hub.Stop()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.False(t, hub.Attach(NewClient(hub, nil, "late", hub.logger)))
}

func TestWithKeepalive(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), WithKeepalive(time.Second, 2*time.Second))
	assert.Equal(t, time.Second, hub.pingPeriod)
	assert.Equal(t, 2*time.Second, hub.pongWait)

	hub = NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), WithKeepalive(3*time.Second, time.Second))
	assert.Equal(t, defaultPingPeriod, hub.pingPeriod)
}
