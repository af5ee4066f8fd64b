package main

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans events out to WebSocket clients and keeps the most recent ones
// for clients that connect later.
type Hub struct {
	keep int

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	recent  []TranslationEvent

	broadcast  chan TranslationEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

// NewHub creates a hub remembering up to keep events.
func NewHub(keep int) *Hub {
	if keep < 0 {
		keep = 0
	}
	return &Hub{
		keep:       keep,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan TranslationEvent, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Publish queues event for every client and records it as recent.
func (h *Hub) Publish(event TranslationEvent) {
	h.mu.Lock()
	h.recent = append(h.recent, event)
	if len(h.recent) > h.keep {
		h.recent = h.recent[len(h.recent)-h.keep:]
	}
	h.mu.Unlock()

	h.broadcast <- event
}

// Recent returns the remembered events, oldest first.
func (h *Hub) Recent() []TranslationEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]TranslationEvent, len(h.recent))
	copy(out, h.recent)
	return out
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			for _, event := range h.Recent() {
				if err := conn.WriteJSON(event); err != nil {
					conn.Close()
					break
				}
			}
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client connected. Total: %d", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client disconnected. Total: %d", total)

		case event := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Write error: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		hub.register <- conn

		// Read until the browser goes away
		go func() {
			defer func() {
				hub.unregister <- conn
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
