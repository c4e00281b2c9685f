package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MoadE2002/healthcare-sub000/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP bodies fit comfortably.
	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

var errSendBufferFull = errors.New("send buffer full")

// Client wraps a single websocket connection. It is the connection handle
// the broker and coordinator address messages to.
type Client struct {
	id     string
	conn   *websocket.Conn
	router *protocol.Router
	logger *zap.Logger

	send    chan protocol.Envelope
	onClose func()

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, router *protocol.Router, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:     id,
		conn:   conn,
		router: router,
		logger: logger.With(zap.String("conn", id)),
		send:   make(chan protocol.Envelope, sendBufferSize),
	}
}

// ID returns the connection handle id.
func (c *Client) ID() string { return c.id }

// Send queues an envelope for delivery. It never blocks the caller: a slow
// consumer whose buffer fills up loses the message.
func (c *Client) Send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- env:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
}

// readPump pumps frames from the websocket into the router. It runs in a
// per-connection goroutine; all reads happen here.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", zap.Error(err))
			}
			return
		}
		if err := c.router.Dispatch(raw); err != nil {
			c.logger.Warn("dispatch error", zap.Error(err))
		}
	}
}

// writePump pumps envelopes from the send channel to the websocket and keeps
// the connection alive with pings. All writes happen here.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Warn("write error", zap.Error(err))
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
