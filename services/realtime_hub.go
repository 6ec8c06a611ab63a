package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is pushed to a user's websocket clients.
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// wsClient is one open socket. Writes are serialized because gorilla
// connections allow a single concurrent writer.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (c *wsClient) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// RealtimeHub fans events out to every socket a user has open.
type RealtimeHub struct {
	mu   sync.RWMutex
	subs map[uint]map[*wsClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{subs: make(map[uint]map[*wsClient]struct{})}
}

// Subscribe adds conn to userID's sockets. The returned cancel removes and
// closes it; calling cancel more than once is safe.
func (h *RealtimeHub) Subscribe(userID uint, conn *websocket.Conn) (cancel func()) {
	c := &wsClient{conn: conn}

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.subs[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	return func() {
		c.once.Do(func() {
			h.drop(userID, c)
			_ = conn.Close()
		})
	}
}

func (h *RealtimeHub) drop(userID uint, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[userID], c)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// Connected returns the number of open clients for a user.
func (h *RealtimeHub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *RealtimeHub) Publish(userID uint, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("realtime: marshal %s: %v", ev.Kind, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[userID] {
		if err := c.write(msg); err != nil {
			log.Printf("realtime: write to user %d: %v", userID, err)
		}
	}
}
