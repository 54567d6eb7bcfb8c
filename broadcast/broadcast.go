// Package broadcast is the in-process event channel connected clients
// subscribe to for live state changes. Scoping (which client sees
// which server) is the consumer's concern.
package broadcast

import (
	"sync"
	"time"
)

type Message struct {
	Type     string                 `json:"type"`
	ServerID string                 `json:"serverId,omitempty"`
	UserID   string                 `json:"userId,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	At       time.Time              `json:"at"`
}

// Hub fans messages out to subscribers. Publishing never blocks: a
// subscriber that cannot keep up drops messages rather than stalling
// an orchestration flow.
type Hub struct {
	mtx  sync.RWMutex
	subs map[chan Message]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Message]struct{})}
}

// Publish implements the orchestrator's Broadcaster.
func (h *Hub) Publish(typ, serverID, userID string, data map[string]interface{}) {
	msg := Message{Type: typ, ServerID: serverID, UserID: userID, Data: data, At: time.Now().UTC()}
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe returns a buffered channel of future messages and a
// cancel func that must be called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, 64)
	h.mtx.Lock()
	h.subs[ch] = struct{}{}
	h.mtx.Unlock()
	return ch, func() {
		h.mtx.Lock()
		delete(h.subs, ch)
		h.mtx.Unlock()
		close(ch)
	}
}
