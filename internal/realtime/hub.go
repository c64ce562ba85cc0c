package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/diagnosis/inkbook/pkg/logger"
)

// Envelope is the frame pushed to connected clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type delivery struct {
	userID  int64
	payload []byte
}

// Hub tracks live connections per user and fans messages out to them.
type Hub struct {
	clients    map[int64]map[*Client]bool
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		deliver:    make(chan delivery, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		done:       make(chan struct{}),
	}
}

// Run owns the client registry until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mutex.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[int64]map[*Client]bool)
			h.mutex.Unlock()
			for {
				select {
				case c := <-h.register:
					close(c.send)
				default:
					return nil
				}
			}

		case client := <-h.register:
			h.mutex.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			h.mutex.Unlock()
			logger.Debug("WS connected", "user_id", client.userID, "connections", len(set))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients[d.userID]))
			for c := range h.clients[d.userID] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- d.payload:
				default:
					// slow consumer
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	logger.Debug("WS disconnected", "user_id", client.userID)
}

// Register hands the client to Run. Once the hub has stopped the client's
// send channel is closed so its WritePump ends the connection.
func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	if h.stopped() {
		close(client.send)
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister never blocks after the hub has stopped; Run already closed every connection.
func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	if h.stopped() {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// SendTo queues an envelope for every connection of userID. It never blocks.
func (h *Hub) SendTo(userID int64, msgType string, data any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		logger.Error("WS marshal failed", "error", err, "type", msgType)
		return
	}
	select {
	case h.deliver <- delivery{userID: userID, payload: b}:
	default:
		logger.Warn("WS delivery dropped", "reason", "buffer_full", "user_id", userID)
	}
}

func (h *Hub) Online(userID int64) bool {
	if h == nil {
		return false
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
