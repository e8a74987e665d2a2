// internal/ws/hub.go
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/bridge"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

const (
	sendBuffer   = 64
	readLimit    = 512
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Update kinds sent to clients.
const (
	KindValue    = "value"
	KindFunction = "function"
	KindIDN      = "idn"
	KindStatus   = "status"
	KindError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Request is a client command: {"kind":"raw","value":"MEAS1?"}.
type Request struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Update is pushed to every client.
type Update struct {
	Kind  string      `json:"kind"`
	Value interface{} `json:"value"`
}

// Submitter accepts commands for the instrument.
type Submitter interface {
	Submit(c bridge.Command) bool
}

// Hub serves /ws and broadcasts bridge updates.
// A client whose buffer is full misses that update.
type Hub struct {
	submit Submitter
	log    *logrus.Entry

	mu      sync.RWMutex
	clients map[*client]bool
	closed  bool

	// Latest retained-style state, replayed to new clients.
	last map[string][]byte
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(submit Submitter, log *logrus.Entry) *Hub {
	return &Hub{
		submit:  submit,
		log:     log,
		clients: make(map[*client]bool),
		last:    make(map[string][]byte),
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.closed = true
	h.log.Info("websocket hub stopped")
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	for _, kind := range []string{KindIDN, KindFunction, KindStatus} {
		if data, ok := h.last[kind]; ok {
			c.send <- data
		}
	}
	h.clients[c] = true
	h.log.Infof("client connected (total: %d)", len(h.clients))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Infof("client disconnected (total: %d)", len(h.clients))
	}
}

func (h *Hub) broadcast(kind string, v interface{}, retain bool) {
	data, err := json.Marshal(Update{Kind: kind, Value: v})
	if err != nil {
		h.log.WithError(err).Error("marshal update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if retain {
		h.last[kind] = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *Hub) handle(c *client, msg []byte) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		c.reply(KindError, "bad request: "+err.Error())
		return
	}
	kind, ok := bridge.ParseCommandKind(req.Kind)
	if !ok {
		c.reply(KindError, "unknown kind: "+req.Kind)
		return
	}
	if !h.submit.Submit(bridge.Command{Kind: kind, Value: req.Value}) {
		c.reply(KindError, "command queue full")
	}
}

// ---- sink ----

func (h *Hub) PublishValue(v float64)           { h.broadcast(KindValue, v, false) }
func (h *Hub) PublishFunction(label string)     { h.broadcast(KindFunction, label, true) }
func (h *Hub) PublishIdentification(idn string) { h.broadcast(KindIDN, idn, true) }
func (h *Hub) PublishStatus(s status.Snapshot)  { h.broadcast(KindStatus, s.String(), true) }

// ---- client pumps ----

func (c *client) reply(kind, msg string) {
	data, _ := json.Marshal(Update{Kind: kind, Value: msg})
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("read error")
			}
			return
		}
		c.hub.handle(c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
