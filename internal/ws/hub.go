package ws

import "sync"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans ingested events and logs out to websocket subscribers, grouped
// by channel name ("events", "logs").
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[Subscriber]struct{})}
}

// Register subscribes a client to a channel.
func (h *Hub) Register(channel string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[Subscriber]struct{})
		h.channels[channel] = subs
	}
	subs[client] = struct{}{}
}

// Unregister removes a client; empty channels are dropped.
func (h *Hub) Unregister(channel string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// Broadcast delivers payload to every subscriber of the channel. Clients
// whose send fails are closed and dropped.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.channels[channel]))
	for client := range h.channels[channel] {
		subs = append(subs, client)
	}
	h.mu.RUnlock()

	for _, client := range subs {
		if err := client.Send(payload); err != nil {
			client.Close()
			h.Unregister(channel, client)
		}
	}
}
