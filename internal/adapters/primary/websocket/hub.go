package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/lorrc/defect-triage/internal/core/ports"
)

// DashboardRoom receives every event regardless of ticket, so open dashboards
// can refresh their summary counts.
const DashboardRoom = "*dashboard"

// Hub maintains the set of active Clients and broadcasts events to them.
type Hub struct {
	// clients maps session identities to their active connections.
	// One person can have several tabs open.
	clients map[string]map[*Client]bool

	// rooms maps ticket keys (and DashboardRoom) to subscribed clients
	rooms map[string]map[*Client]bool

	broadcast chan domain.Event

	Register   chan *Client
	Unregister chan *Client

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	pingPeriod time.Duration
	pongWait   time.Duration

	done   chan struct{}
	logger *slog.Logger
}

// Option customises a Hub.
type Option func(*Hub)

// WithKeepalive overrides the ping interval and pong deadline used by clients.
// The ping interval must be shorter than the pong deadline; invalid pairs are ignored.
func WithKeepalive(ping, pong time.Duration) Option {
	return func(h *Hub) {
		if ping > 0 && pong > ping {
			h.pingPeriod = ping
			h.pongWait = pong
		}
	}
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Broadcast queues an event for delivery. A full queue drops the event:
// dashboards recover on their next poll, and a tracker write must never
// fail because a browser is slow.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"ticket_key", event.TicketKey,
		)
	}
	return nil
}

// Run starts the hub's event loop. It returns after Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends the event loop and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Attach hands a new client to the event loop. It is a no-op once the hub
// has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Identity] == nil {
		h.clients[client.Identity] = make(map[*Client]bool)
	}
	h.clients[client.Identity][client] = true

	h.logger.Info("client registered",
		"account_id", client.Identity,
		"total_connections", len(h.clients[client.Identity]),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)

	h.logger.Info("client unregistered", "account_id", client.Identity)
}

// removeLocked drops client from every map. Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	if conns, ok := h.clients[client.Identity]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.Identity)
		}
	}

	for _, room := range client.GetSubscriptions() {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	client.CloseSend()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// broadcastEvent delivers an event to the ticket's room and the dashboard room.
// A client subscribed to both receives it once.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	seen := make(map[*Client]bool)
	clients := make([]*Client, 0)
	for _, room := range []string{event.TicketKey, DashboardRoom} {
		for client := range h.rooms[room] {
			if !seen[client] {
				seen[client] = true
				clients = append(clients, client)
			}
		}
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"ticket_key", event.TicketKey,
		"client_count", len(clients),
	)

	var slow []*Client
	for _, client := range clients {
		if !client.trySend(event) {
			slow = append(slow, client)
		}
	}

	// Unregistering inline: sending on h.Unregister from the Run goroutine
	// would deadlock.
	for _, client := range slow {
		h.logger.Warn("client send buffer full, unregistering",
			"account_id", client.Identity,
		)
		h.unregisterClient(client)
	}
}

func (h *Hub) subscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.AddSubscription(room)

	h.logger.Debug("client subscribed",
		"account_id", client.Identity,
		"room", room,
	)
}

func (h *Hub) unsubscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.RemoveSubscription(room)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.clients {
		count += len(conns)
	}
	return count
}

// GetRoomCount returns the number of active rooms
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the number of clients subscribed to a room
func (h *Hub) GetClientsInRoom(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
