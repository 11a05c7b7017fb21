package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client is one websocket session. Frames are queued on send and written by
// writePump; a full queue drops the frame for this session only.
type Client struct {
	id      string
	userID  string
	conn    *websocket.Conn
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
	send   chan []byte
	done   chan struct{}
}

func newClient(conn *websocket.Conn, buffer, perSecond int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	lim := rate.Inf
	burst := 0
	if perSecond > 0 {
		lim = rate.Limit(perSecond)
		burst = perSecond
	}
	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: rate.NewLimiter(lim, burst),
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
	}
}

func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close stops accepting frames; writePump flushes what is queued and exits.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) writePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
