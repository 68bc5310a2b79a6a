package websocket

import (
	"context"
	"log"

	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

// Hub fans session events out to the connected mentor and mentee. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[Conn]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.SessionEvent
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[Conn]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.SessionEvent, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event without blocking the caller. Events are dropped
// when the queue is full.
func (h *Hub) Publish(event models.SessionEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[WS] broadcast queue full, dropping %s for session %s", event.Type, event.SessionID)
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
			}
			return
		case client := <-h.register:
			log.Printf("[WS] client registered: %s", client.UserID)
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[Conn]struct{})
			}
			h.clients[client.UserID][client.Conn] = struct{}{}
		case client := <-h.unregister:
			log.Printf("[WS] client unregistered: %s", client.UserID)
			h.remove(client.UserID, client.Conn)
		case event := <-h.broadcast:
			h.send(event.MentorID, event)
			if event.MenteeID != event.MentorID {
				h.send(event.MenteeID, event)
			}
		}
	}
}

func (h *Hub) send(userID uuid.UUID, event models.SessionEvent) {
	for conn := range h.clients[userID] {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[WS] error sending %s to %s: %v", event.Type, userID, err)
			conn.Close()
			h.remove(userID, conn)
		}
	}
}

func (h *Hub) remove(userID uuid.UUID, conn Conn) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}
