// Package websocket implements a WebSocket Hub for broadcasting live schedule
// updates. Clients subscribe per week: when an organizer regenerates a week's
// schedule, everyone looking at that week's tee sheet sees the new foursomes
// and the regeneration status changes pushed to them, without polling.
package websocket

import "sync"

// Client represents a single connected WebSocket client.
// Each person watching a week's tee sheet has one Client instance.
type Client struct {
	WeekID string      // Which week this client is watching — routes messages to the right audience
	Send   chan []byte // Buffered channel of outgoing messages; the Hub writes here, the connection drains it
}

// Message is a unit of data to broadcast to all clients watching one week.
type Message struct {
	WeekID string // The week this message belongs to
	Data   []byte // Raw bytes to send (typically a JSON-encoded schedule or status event)
}

// Hub manages all active WebSocket connections, grouped by week ID.
// It runs in its own goroutine and processes registration, unregistration,
// and broadcast events through channels, keeping all map mutation on a single
// goroutine.
type Hub struct {
	// clients is a nested map: weekID -> set of Client pointers.
	// map[*Client]bool as a set is the usual Go idiom.
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	// mu lets BroadcastToWeek's readers coexist with the run loop's writes.
	mu sync.RWMutex
}

// NewHub creates an empty Hub. The broadcast channel is buffered so handlers
// don't block if the Hub goroutine is briefly busy; register/unregister stay
// unbuffered because those must complete before the caller proceeds.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the Hub's main event loop. Call it in a goroutine ("go hub.Run()");
// it blocks forever, handling one event at a time.
func (h *Hub) Run() {
	for {
		select {

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.WeekID] == nil {
				h.clients[client.WeekID] = make(map[*Client]bool)
			}
			h.clients[client.WeekID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.WeekID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send) // signals the connection's writer goroutine to stop
					if len(clients) == 0 {
						delete(h.clients, client.WeekID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			clients := h.clients[msg.WeekID]
			for client := range clients {
				select {
				case client.Send <- msg.Data:
				// Full buffer means the client is too slow — drop it rather
				// than stall the broadcast for everyone else. Dropped inline:
				// sending to h.unregister from this goroutine would deadlock.
				default:
					close(client.Send)
					delete(clients, client)
				}
			}
			if len(clients) == 0 {
				delete(h.clients, msg.WeekID)
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToWeek sends data to all clients currently watching the given
// week. Handlers call this after a schedule mutation succeeds.
func (h *Hub) BroadcastToWeek(weekID string, data []byte) {
	h.broadcast <- &Message{WeekID: weekID, Data: data}
}

// Register adds a client so it starts receiving broadcasts for its week.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client when its connection closes.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
