package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer (control frames are tiny)
	maxMessageSize = 1024

	// Per-client outbound buffer; a client that falls this far behind is
	// dropped and expected to reconnect and re-fetch
	sendBufferSize = 64
)

// TokenValidator checks a connection token before a room join is accepted
type TokenValidator func(token string) error

// controlMessage is the client -> server frame on the socket
type controlMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// subscription asks the hub to add a client to a room
type subscription struct {
	client *Client
	room   string
}

// roomMessage is a payload addressed to every member of a room
type roomMessage struct {
	room    string
	payload []byte
}

// Hub owns the room membership map. All membership changes and broadcasts go
// through its run loop, so no locking is needed around the rooms map.
type Hub struct {
	validate TokenValidator

	register   chan subscription
	unregister chan *Client
	broadcast  chan roomMessage

	rooms map[string]map[*Client]bool
}

// NewHub creates a hub. Run must be started before serving connections.
func NewHub(validate TokenValidator) *Hub {
	return &Hub{
		validate:   validate,
		register:   make(chan subscription),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 16),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Run processes registrations, departures and broadcasts until the process exits
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			clients, ok := h.rooms[sub.room]
			if !ok {
				clients = make(map[*Client]bool)
				h.rooms[sub.room] = clients
			}
			clients[sub.client] = true
			// Ack from inside the loop so that by the time the client sees
			// it, membership is visible to subsequent broadcasts
			sub.client.queue([]byte(`{"type":"joined","room":"` + sub.room + `"}`))

		case client := <-h.unregister:
			for room, clients := range h.rooms {
				if clients[client] {
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, room)
					}
				}
			}
			client.close()

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				if !client.queue(msg.payload) {
					// Slow consumer: drop it, reconnection + refetch is the
					// recovery path
					delete(h.rooms[msg.room], client)
					client.close()
				}
			}
		}
	}
}

// Publish broadcasts an event to every terminal in the staff room
func (h *Hub) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event %s: %v", event.Type, err)
		return
	}
	h.broadcast <- roomMessage{room: RoomStaff, payload: payload}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser terminals connect cross-origin; REST-level CORS and the join
	// token carry the access control
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket connection and starts the
// client pumps. The connection is useless until a join-staff-room frame with
// a valid token is received.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	go client.writePump()
	go client.readPump()
	return nil
}

// Client is one connected terminal socket
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	closed bool
}

// queue offers a payload to the client's ordered send channel.
// Returns false when the buffer is full.
func (c *Client) queue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close shuts the send channel once; writePump then closes the connection.
// Only the hub loop calls this, so the bool needs no lock.
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump handles control frames from the terminal until the socket drops
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Terminal socket closed unexpectedly: %v", err)
			}
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "join-staff-room":
			if c.hub.validate != nil {
				if err := c.hub.validate(msg.Token); err != nil {
					c.queue([]byte(`{"type":"error","code":"INVALID_TOKEN"}`))
					return
				}
			}
			c.hub.register <- subscription{client: c, room: RoomStaff}
		default:
			// Unknown control frames are ignored; the protocol may grow
		}
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings. One writer per connection keeps writes ordered.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

var defaultHub *Hub

// SetHub installs the process-wide hub used by Publish
func SetHub(h *Hub) {
	defaultHub = h
}

// GetHub returns the installed hub (nil before SetHub)
func GetHub() *Hub {
	return defaultHub
}

// Publish broadcasts through the installed hub. A nil hub drops the event;
// terminals survive missed events by re-fetching, and tests run without a hub.
func Publish(event Event) {
	if defaultHub != nil {
		defaultHub.Publish(event)
	}
}
