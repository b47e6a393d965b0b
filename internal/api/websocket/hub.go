package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/publisher"
)

// Message is what clients receive.
type Message struct {
	Type      string      `json:"type"`
	Source    string      `json:"source,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

type outbound struct {
	source  string
	payload []byte
}

// Hub fans messages out to connected clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *logging.Logger

	mu sync.RWMutex
}

// NewHub creates a hub. Call Run before accepting clients.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Component("websocket"),
	}
}

// Run serves register, unregister and broadcast until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
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
			h.logger.Debug("client registered", "clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "clients", total)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(msg.source) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every interested client. It drops the message
// when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	payload, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode message", "type", msg.Type, "error", err)
		return
	}

	select {
	case h.broadcast <- outbound{source: msg.Source, payload: payload}:
	default:
		h.logger.Warn("broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Published implements pipeline.Observer.
func (h *Hub) Published(_ context.Context, p pipeline.Publication) {
	msg := Message{
		Type:   "record_published",
		Source: p.Source,
		Data:   publisher.NewRecordEvent(p),
	}
	if !p.PublishedAt.IsZero() {
		msg.Timestamp = p.PublishedAt.Unix()
	}
	h.Broadcast(msg)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
