package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geopaint/internal/event"
	"github.com/woozymasta/geopaint/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message types pushed to the page.
const (
	MessageState = "state"
	MessageAlert = "alert"
	MessageError = "error"
)

// Message is a websocket frame sent to clients.
type Message struct {
	Data    interface{} `json:"data,omitempty"`
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type reply struct {
	to   *client
	data []byte
}

// outgoing is a broadcast frame. A frame with join set registers that client
// and sends data to it alone, ordered with the broadcasts around it.
type outgoing struct {
	join *client
	data []byte
}

// Hub fans messages out to every connected page.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan outgoing
	replies    chan reply
	alerts     chan []byte
	unregister chan *client
	done       chan struct{}
	dispatch   func(event.Event) error
	greet      func(join func(Message)) error
	lastAlert  []byte
}

// NewHub creates a hub. dispatch handles events sent by clients.
// greet must call join with the first message of a new connection from the
// goroutine that calls Broadcast, so the greeting is never older than a
// broadcast delivered after it.
func NewHub(dispatch func(event.Event) error, greet func(join func(Message)) error) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan outgoing, 256),
		replies:    make(chan reply, 64),
		alerts:     make(chan []byte, 8),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		dispatch:   dispatch,
		greet:      greet,
	}
}

// Run serves registrations and broadcasts until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			metrics.WebsocketClients.Set(float64(len(h.clients)))

		case msg := <-h.broadcast:
			if msg.join == nil {
				for c := range h.clients {
					h.deliver(c, msg.data)
				}
				continue
			}

			c := msg.join
			h.clients[c] = true
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			if msg.data != nil {
				h.deliver(c, msg.data)
			}
			// pages opened after a failed startup load still see the alert
			if h.lastAlert != nil && h.clients[c] {
				h.deliver(c, h.lastAlert)
			}

		case msg := <-h.alerts:
			h.lastAlert = msg
			if msg == nil {
				continue
			}
			for c := range h.clients {
				h.deliver(c, msg)
			}

		case r := <-h.replies:
			if h.clients[r.to] {
				h.deliver(r.to, r.data)
			}
		}
	}
}

func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		// slow client, drop it
		close(c.send)
		delete(h.clients, c)
	}
}

// Broadcast queues a message for every client. It never blocks.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode message")
		return
	}

	select {
	case h.broadcast <- outgoing{data: data}:
	default:
		log.Warn().Str("type", msg.Type).Msg("Broadcast queue full, message dropped")
	}
}

// Alert shows message on every connected page and on pages connecting later.
func (h *Hub) Alert(message string) {
	data, err := json.Marshal(Message{Type: MessageAlert, Message: message})
	if err != nil {
		return
	}

	select {
	case h.alerts <- data:
	default:
		log.Warn().Msg("Alert queue full, alert dropped")
	}
}

// ClearAlert stops showing the last alert to new pages.
func (h *Hub) ClearAlert() {
	select {
	case h.alerts <- nil:
	default:
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	// a timed out greeting may still run on the loop later, register once
	var (
		once   sync.Once
		joined bool
	)
	register := func(greeting []byte) {
		once.Do(func() { joined = h.join(c, greeting) })
	}

	if h.greet != nil {
		err := h.greet(func(msg Message) {
			data, err := json.Marshal(msg)
			if err != nil {
				log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode message")
				data = nil
			}
			register(data)
		})
		if err != nil {
			log.Warn().Err(err).Str("ip", r.RemoteAddr).Msg("Failed to build greeting")
		}
	}
	register(nil)
	if !joined {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// join queues the registration of c behind the broadcasts already queued.
func (h *Hub) join(c *client, greeting []byte) bool {
	select {
	case h.broadcast <- outgoing{join: c, data: greeting}:
		return true
	case <-h.done:
		return false
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(64 << 10)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev event.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("WebSocket closed")
			}
			return
		}

		if err := c.hub.dispatch(ev); err != nil {
			c.hub.reply(c, Message{Type: MessageError, Message: err.Error()})
		}
	}
}

func (h *Hub) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.replies <- reply{to: c, data: data}:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
