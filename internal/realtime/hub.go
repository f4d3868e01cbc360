// Package realtime pushes map change events to connected admin clients.
package realtime

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	EventRegionCreated   = "region.created"
	EventRegionUpdated   = "region.updated"
	EventRegionDeleted   = "region.deleted"
	EventBuildingDeleted = "building.deleted"
	EventFloorDeleted    = "floor.deleted"
	EventRoomDeleted     = "room.deleted"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is one change notification.
type Event struct {
	Type string                 `json:"type"`
	ID   uint                   `json:"id"`
	Data map[string]interface{} `json:"data,omitempty"`
	At   time.Time              `json:"at"`
}

// Publisher is what services use to announce committed changes.
type Publisher interface {
	Publish(eventType string, id uint, data map[string]interface{})
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(string, uint, map[string]interface{}) {}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to every connected client. A client whose buffer is full is dropped.
type Hub struct {
	clients   map[*client]bool
	broadcast chan Event
	mu        sync.Mutex
}

// NewHub creates the hub and starts its broadcast loop.
func NewHub() *Hub {
	hub := &Hub{
		clients:   make(map[*client]bool),
		broadcast: make(chan Event, 100),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for ev := range h.broadcast {
		h.mu.Lock()
		for c := range h.clients {
			select {
			case c.send <- ev:
			default:
				logrus.WithField("conn_ptr", fmt.Sprintf("%p", c.conn)).Warn("Map client too slow, disconnecting.")
				h.removeLocked(c)
			}
		}
		h.mu.Unlock()
	}
}

// Publish queues an event. It never blocks the caller; a full queue drops the event.
func (h *Hub) Publish(eventType string, id uint, data map[string]interface{}) {
	ev := Event{Type: eventType, ID: id, Data: data, At: time.Now().UTC()}
	select {
	case h.broadcast <- ev:
	default:
		logrus.WithField("type", eventType).Warn("Map broadcast channel full, dropping event.")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("ServeWS: upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan Event, 16)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Map client registered.")

	go h.writePump(c)
	h.readPump(c)
}

// readPump only consumes control frames; clients do not send data.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Warn("Map client read failed.")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				logrus.WithError(err).Warn("Failed to send map event to client.")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", c.conn)).Info("Map client unregistered.")
}
