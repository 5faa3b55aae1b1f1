package websocket

import (
	"log/slog"
	"sync"

	"github.com/dom/storyverse/internal/domain"
)

type delivery struct {
	userID int64
	event  domain.Event
}

// Hub fans resource events out to the websocket clients of the owning user.
// All subscription state is owned by the Run goroutine.
type Hub struct {
	clients    map[int64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[int64]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			h.log.Debug("websocket client registered",
				slog.Int64("user_id", client.userID),
				slog.String("client_id", client.id.String()))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	set := h.clients[d.userID]
	if len(set) == 0 {
		return
	}

	data, err := eventMessage(d.event)
	if err != nil {
		h.log.Error("failed to encode event", slog.Any("error", err))
		return
	}

	for client := range set {
		if !client.enqueue(data) {
			h.log.Warn("dropping slow websocket client", slog.Int64("user_id", d.userID))
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
}

// Stop shuts the hub down and closes every client. It blocks until Run exits.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) isStopped() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stopped
}

// Register hands a client to the hub. It reports false when the hub has
// already shut down.
func (h *Hub) Register(client *Client) bool {
	if h.isStopped() {
		return false
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	if h.isStopped() {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for the user's connected clients.
func (h *Hub) Publish(userID int64, event domain.Event) {
	if h.isStopped() {
		return
	}
	select {
	case h.broadcast <- delivery{userID: userID, event: event}:
	case <-h.done:
	}
}
