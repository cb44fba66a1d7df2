package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/defect-triage/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = (defaultPongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Message types a dashboard can send.
const (
	MsgSubscribeTicket      = "SUBSCRIBE_TO_TICKET"
	MsgUnsubscribeTicket    = "UNSUBSCRIBE_FROM_TICKET"
	MsgSubscribeDashboard   = "SUBSCRIBE_TO_DASHBOARD"
	MsgUnsubscribeDashboard = "UNSUBSCRIBE_FROM_DASHBOARD"
	MsgPing                 = "PING"
	msgPong                 = "PONG"
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// Conn is nil in tests that drive the hub directly.
	Conn *websocket.Conn

	// Buffered channel of outbound events.
	Send chan domain.Event

	// Identity is the session's tracker account, or a generated id when
	// sessions are disabled.
	Identity string

	subscriptions map[string]bool
	closed        bool
	mu            sync.RWMutex
	logger        *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, identity string, logger *slog.Logger) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan domain.Event, 256),
		Identity:      identity,
		subscriptions: make(map[string]bool),
		logger:        logger.With("account_id", identity),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// trySend queues an event without blocking. It reports false when the
// buffer is full or the client is closed.
func (c *Client) trySend(event domain.Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) AddSubscription(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[room] = true
}

func (c *Client) RemoveSubscription(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, room)
}

func (c *Client) HasSubscription(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[room]
}

// GetSubscriptions returns a copy of all subscribed rooms
func (c *Client) GetSubscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.subscriptions))
	for room := range c.subscriptions {
		rooms = append(rooms, room)
	}
	return rooms
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.detach(c)
		_ = c.Conn.Close()
	}()

	pongWait := c.Hub.pongWait
	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// ClientMessage is the structure for messages sent from the dashboard.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload names the ticket for ticket subscriptions.
type SubscribePayload struct {
	TicketKey string `json:"ticketKey"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case MsgSubscribeTicket:
		if key, ok := c.ticketKey(msg.Payload); ok && !c.HasSubscription(key) {
			c.Hub.subscribe(c, key)
		}

	case MsgUnsubscribeTicket:
		if key, ok := c.ticketKey(msg.Payload); ok && c.HasSubscription(key) {
			c.Hub.unsubscribe(c, key)
		}

	case MsgSubscribeDashboard:
		if !c.HasSubscription(DashboardRoom) {
			c.Hub.subscribe(c, DashboardRoom)
		}

	case MsgUnsubscribeDashboard:
		if c.HasSubscription(DashboardRoom) {
			c.Hub.unsubscribe(c, DashboardRoom)
		}

	case MsgPing:
		c.trySend(domain.Event{Type: msgPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) ticketKey(payload json.RawMessage) (string, bool) {
	var p SubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal subscribe payload", "error", err)
		return "", false
	}
	if err := domain.ValidateTicketKey(p.TicketKey); err != nil {
		c.logger.Warn("invalid ticket key in subscription", "ticket_key", p.TicketKey)
		return "", false
	}
	return p.TicketKey, true
}
