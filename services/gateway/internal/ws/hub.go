// Package ws implements the live order-status fan-out: an in-memory mapping
// from order id to the set of connected subscribers. Delivery is best-effort,
// at-least-once; subscribers must tolerate duplicates.
package ws

import "sync"

// conn is the subset of *websocket.Conn the hub needs; narrowed for tests.
type conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live subscriber. Writes are serialized per connection because
// gorilla/websocket permits only one concurrent writer.
type Client struct {
	mu sync.Mutex
	c  conn
}

func NewClient(c conn) *Client {
	return &Client{c: c}
}

func (cl *Client) Send(v any) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.c.WriteJSON(v)
}

func (cl *Client) Close() error {
	return cl.c.Close()
}

// Hub is the process-wide subscribers map, guarded for concurrent
// subscribe/unsubscribe/broadcast.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Subscribe(orderID int64, cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[orderID]
	if !ok {
		set = make(map[*Client]struct{})
		h.subs[orderID] = set
	}
	set[cl] = struct{}{}
}

// Unsubscribe removes the client and sweeps the entry when its set empties.
func (h *Hub) Unsubscribe(orderID int64, cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[orderID]
	if !ok {
		return
	}
	delete(set, cl)
	if len(set) == 0 {
		delete(h.subs, orderID)
	}
}

// Subscribers reports the live subscriber count for an order id.
func (h *Hub) Subscribers(orderID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}

// Broadcast sends v to every subscriber of orderID and drops clients whose
// send fails. Messages for order ids with no listeners are discarded.
// Returns the number of successful sends.
func (h *Hub) Broadcast(orderID int64, v any) int {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.subs[orderID]))
	for cl := range h.subs[orderID] {
		snapshot = append(snapshot, cl)
	}
	h.mu.RUnlock()

	sent := 0
	for _, cl := range snapshot {
		if err := cl.Send(v); err != nil {
			h.Unsubscribe(orderID, cl)
			_ = cl.Close()
			continue
		}
		sent++
	}
	return sent
}

// CloseAll closes every connection and empties the map. Called on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, set := range h.subs {
		for cl := range set {
			_ = cl.Close()
		}
		delete(h.subs, id)
	}
}
