package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onemedia/broadcast-service/internal/config"
	"github.com/onemedia/broadcast-service/internal/domain"
	"github.com/onemedia/broadcast-service/internal/log"
)

// Client is one live viewer or admin connection. Outbound frames are queued
// on Send and written by WritePump; nothing writes to the conn directly.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *domain.Session
	config  config.WebSocketConfig

	mu     sync.Mutex
	closed bool
}

func NewClient(id, origin string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:      id,
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Session: domain.NewSession(id, origin),
		config:  cfg,
	}
}

// queue places a frame on the send buffer. Frames for a torn-down connection
// are dropped; alive=false tells the hub the client is already gone, while a
// full buffer (queued=false, alive=true) marks it for eviction. The mutex
// pairs with closeSend so a frame can never race the channel close.
func (c *Client) queue(data []byte) (queued, alive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, false
	}
	select {
	case c.Send <- data:
		return true, true
	default:
		return false, true
	}
}

// closeSend ends the outbound stream and releases WritePump. Idempotent;
// commands arriving for the connection afterwards are silently dropped.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// SendMessage marshals and queues one frame for the connection. A closed or
// saturated connection drops the frame rather than blocking the caller.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.queue(data)
	return nil
}

// ReadPump feeds inbound frames to handler until the connection dies, then
// unregisters the client. Runs as one goroutine per connection.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldClientID, c.ID).Msg("unexpected websocket close")
			}
			break
		}

		if c.Session != nil {
			c.Session.UpdateActivity()
		}

		handler(c, message)
	}
}

// WritePump drains Send onto the wire and keeps the connection alive with
// pings. Exits when Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
