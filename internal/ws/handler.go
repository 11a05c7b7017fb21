package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Upgrade rejects plain HTTP requests on the websocket route.
func (r *Router) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler serves /ws. The credential comes from ?token= or from a first
// {"type":"auth"} frame.
func (r *Router) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		r.Serve(conn, conn.Query("token"))
	})
}

// Serve runs one session until the peer disconnects or the router shuts down.
func (r *Router) Serve(conn *websocket.Conn, token string) {
	ctx := context.Background()
	c := newClient(conn, r.opts.SendBuffer, r.opts.MessagesPerSecond)
	go c.writePump(r.opts.PingInterval, r.opts.WriteDeadline)
	defer func() {
		r.HandleDisconnect(ctx, c)
		// let the writer flush queued frames before fiber closes the conn
		select {
		case <-c.done:
		case <-time.After(r.opts.WriteDeadline):
		}
	}()

	conn.SetReadLimit(r.opts.MaxMessageSize)
	if token == "" {
		token = r.readAuthFrame(conn)
	}
	if _, err := r.HandleAuth(ctx, c, token); err != nil {
		c.enqueue(encode(EventConnectError, ErrorPayload{Message: msgAuthFailed}))
		return
	}

	pongWait := 2 * r.opts.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}
		r.HandleFrame(ctx, c, data)
	}
}

func (r *Router) readAuthFrame(conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(r.opts.AuthTimeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	mt, data, err := conn.ReadMessage()
	if err != nil || mt != websocket.TextMessage {
		return ""
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil || f.Type != EventAuth {
		return ""
	}
	var p AuthPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return ""
	}
	return p.Token
}
