// Package websocket provides WebSocket connection management and message broadcasting.
package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	log zerolog.Logger

	// Registered clients
	clients map[*Client]bool

	// Outbound messages in send order, for every client or a single one
	outbound chan outboundMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe client access
	mu sync.RWMutex
}

// outboundMessage goes to client, or to every client when client is nil.
type outboundMessage struct {
	client  *Client
	message []byte
}

// NewHub creates a new WebSocket hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:        log.With().Str("component", "websocket").Logger(),
		clients:    make(map[*Client]bool),
		outbound:   make(chan outboundMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop until ctx is cancelled.
// This should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client_id", client.ID).Int("total", total).Msg("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client_id", client.ID).Int("total", total).Msg("websocket client disconnected")

		case out := <-h.outbound:
			h.mu.Lock()
			if out.client == nil {
				for client := range h.clients {
					h.deliver(client, out.message)
				}
			} else if _, ok := h.clients[out.client]; ok {
				h.deliver(out.client, out.message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver queues message for client, dropping the client if its buffer is
// full. Callers hold h.mu.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.log.Warn().Str("client_id", client.ID).Msg("client send buffer full, closing connection")
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.outbound <- outboundMessage{message: message}:
	default:
		h.log.Warn().Msg("outbound channel full, dropping broadcast")
	}
}

// SendTo sends a message to one client, if it is still registered. It shares
// the broadcast queue, so it is ordered with respect to broadcasts.
func (h *Hub) SendTo(client *Client, message []byte) {
	select {
	case h.outbound <- outboundMessage{client: client, message: message}:
	default:
		h.log.Warn().Str("client_id", client.ID).Msg("outbound channel full, dropping message")
	}
}

// Register adds a client to the hub. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client represents a WebSocket client connection.
type Client struct {
	ID   string
	hub  *Hub
	send chan []byte
}

// NewClient creates a new WebSocket client.
func NewClient(hub *Hub) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

// Send returns the send channel for the client.
func (c *Client) Send() chan []byte {
	return c.send
}
