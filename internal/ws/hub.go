package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Feed event types pushed to admin dashboards.
const (
	EventBidSubmitted     = "bid.submitted"
	EventBidStatusChanged = "bid.status_changed"
	EventProjectCreated   = "project.created"
	EventProjectUpdated   = "project.updated"
	EventProjectDeleted   = "project.deleted"
	EventProjectsExpired  = "project.deadline_passed"
)

// Event is the wire shape: {"type": ..., "data": ..., "at": ...}.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

func NewEvent(typ string, data any) Event {
	return Event{Type: typ, Data: data, At: time.Now().UTC()}
}

// Publisher is what request handlers and background tasks use to emit feed events.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Hub fans events out to every connected admin client.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Register and Unregister are no-ops once the hub loop has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish encodes ev and queues it for all clients. A full queue drops the event.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		h.log.ErrorContext(ctx, "ws.encode_failed", "type", ev.Type, "err", err)
		return
	}
	h.PublishRaw(ctx, raw)
}

func (h *Hub) PublishRaw(ctx context.Context, raw []byte) {
	select {
	case h.broadcast <- raw:
	default:
		h.log.WarnContext(ctx, "ws.broadcast_dropped", "reason", fmt.Sprintf("queue full (%d)", cap(h.broadcast)))
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) send(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// slow consumer: drop it rather than stall the feed
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
