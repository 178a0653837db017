// Package nowplaying pushes playlist changes to websocket listeners.
package nowplaying

import (
	"encoding/json"
	"sync"
	"time"

	"Playdeck/core/playlist"
	"Playdeck/logger"
	"Playdeck/model"
)

// MessageType names a message sent to listeners.
type MessageType string

const (
	MsgTypeSnapshot MessageType = "snapshot" // Full playlist, sent once on connect
	MsgTypeAppended MessageType = MessageType(playlist.EventAppended)
	MsgTypeRemoved  MessageType = MessageType(playlist.EventRemoved)
	MsgTypeMoved    MessageType = MessageType(playlist.EventMoved)
	MsgTypePing     MessageType = "ping"
	MsgTypePong     MessageType = "pong"
)

// Message is the websocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// SnapshotData is the payload of a snapshot message.
type SnapshotData struct {
	Songs        []model.Track `json:"songs"`
	Length       int           `json:"length"`
	CurrentIndex int           `json:"currentIndex"`
}

// Hub fans messages out to every registered client. Delivery happens in the
// caller's goroutine and never blocks, so a playlist.Session can publish while
// holding its lock and listeners see events in mutation order.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]bool
	stopped bool
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Stop closes every client's send channel. Later registrations fail and
// broadcasts are ignored. Stop is idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	for client := range h.clients {
		close(client.Send)
	}
	clear(h.clients)
}

// Register adds client. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	return h.Join(client, nil)
}

// Join queues first, when not nil, ahead of any broadcast and registers
// client. Called from playlist.Session.View it attaches a listener with a
// snapshot that no event can overtake or fall behind.
func (h *Hub) Join(client *Client, first []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	if first != nil {
		select {
		case client.Send <- first:
		default:
			return false
		}
	}
	h.clients[client] = true
	logger.Debug("listener registered", logger.Int("listeners", len(h.clients)))
	return true
}

// Unregister removes client. It is safe to call after Stop.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient must be called with h.mu held.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		logger.Debug("listener unregistered", logger.Int("listeners", len(h.clients)))
	}
}

// Broadcast queues message for every client. It never blocks; a client whose
// queue is full is dropped and can reconnect for a fresh snapshot.
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			logger.Warn("dropping slow listener")
			h.removeClient(client)
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish is a playlist.Listener that forwards ev to every client.
func (h *Hub) Publish(ev playlist.Event) {
	data, err := Encode(MessageType(ev.Type), ev)
	if err != nil {
		logger.Error("failed to encode playlist event", logger.ErrorField(err))
		return
	}
	h.Broadcast(data)
}

// Encode wraps payload in a Message and marshals it.
func Encode(typ MessageType, payload any) ([]byte, error) {
	msg := Message{Type: typ, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}
	return json.Marshal(msg)
}
