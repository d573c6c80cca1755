// server/internal/socket/hub.go
package socket

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// subscriptionBuffer is the per-subscription channel depth. A consumer that
// falls this far behind is detached instead of blocking the hub; it must
// resubscribe and re-fetch, which is the documented at-most-once gap across
// reconnects.
const subscriptionBuffer = 64

// Hub fans committed state changes out to every interested observer: attached
// websocket dashboards and in-process subscriptions. Publishers call Publish
// on the goroutine that performed the commit, so delivery order per entity id
// follows commit order.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	subs    map[*Subscription]struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
		subs:    make(map[*Subscription]struct{}),
	}
}

// Publish delivers the event to every matching consumer.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	var lagging []*Subscription
	for s := range h.subs {
		if !s.filter.Matches(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			lagging = append(lagging, s)
		}
	}
	for c := range h.clients {
		if c.matches(e) {
			if err := c.write(e); err != nil {
				h.log.Warn().Str("staffID", c.staffID).Err(err).Msg("websocket write failed")
			}
		}
	}
	h.mu.RUnlock()

	for _, s := range lagging {
		h.log.Warn().Str("entity", e.Entity).Str("entityID", e.EntityID).Msg("dropping lagging subscriber")
		s.Close()
	}
}

// Subscribe registers an in-process consumer. The caller owns the returned
// handle and must Close it on scope exit.
func (h *Hub) Subscribe(f Filter) *Subscription {
	s := &Subscription{
		hub:    h,
		filter: f,
		ch:     make(chan Event, subscriptionBuffer),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Register attaches a websocket connection. Filters start empty; the client
// adds them with subscribe frames.
func (h *Hub) Register(staffID string, conn *websocket.Conn) *Client {
	c := &Client{
		staffID: staffID,
		conn:    conn,
		filters: make(map[string]Filter),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info().Str("staffID", staffID).Msg("websocket client registered")
	return c
}

// Unregister detaches a websocket connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		h.log.Info().Str("staffID", c.staffID).Msg("websocket client unregistered")
	}
}

func (h *Hub) removeSub(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Subscription is a scoped handle to the event stream. Events arrive on C in
// commit order per entity id. Close releases the subscription and closes C.
type Subscription struct {
	hub    *Hub
	filter Filter
	ch     chan Event
	once   sync.Once
}

// C returns the receive channel. It is closed by Close or when the hub
// detaches a lagging consumer.
func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.removeSub(s) })
}

// Client is one attached websocket dashboard with its active filters.
type Client struct {
	staffID string
	conn    *websocket.Conn

	writeMu sync.Mutex
	mu      sync.RWMutex
	filters map[string]Filter
}

// AddFilter registers or replaces a named filter on the connection.
func (c *Client) AddFilter(key string, f Filter) {
	c.mu.Lock()
	c.filters[key] = f
	c.mu.Unlock()
}

// RemoveFilter drops a named filter.
func (c *Client) RemoveFilter(key string) {
	c.mu.Lock()
	delete(c.filters, key)
	c.mu.Unlock()
}

func (c *Client) matches(e Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.filters {
		if f.Matches(e) {
			return true
		}
	}
	return false
}

func (c *Client) write(e Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(e)
}
