package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/auth"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/metrics"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"go.uber.org/zap"
)

// MessageSender persists a message after checking both participants.
type MessageSender interface {
	Send(ctx context.Context, senderID, receiverID, body string) (*models.Message, error)
}

// Presence mirrors session membership outside the process. Optional.
type Presence interface {
	AddSession(ctx context.Context, userID, sessionID string) error
	RemoveSession(ctx context.Context, userID, sessionID string) error
}

type Options struct {
	PingInterval      time.Duration
	WriteDeadline     time.Duration
	AuthTimeout       time.Duration
	MaxMessageSize    int64
	SendBuffer        int
	MessagesPerSecond int
	OpTimeout         time.Duration
}

func (o *Options) defaults() {
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.WriteDeadline <= 0 {
		o.WriteDeadline = 10 * time.Second
	}
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = 5 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 65536
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 5 * time.Second
	}
}

// Router authenticates sessions, joins them to their user's room and fans
// out every persisted message to the receiver's and the sender's rooms.
type Router struct {
	hub      *Hub
	verifier auth.Verifier
	chat     MessageSender
	presence Presence
	metrics  *metrics.Metrics
	log      *zap.Logger
	opts     Options
}

func NewRouter(hub *Hub, verifier auth.Verifier, chat MessageSender, presence Presence, m *metrics.Metrics, log *zap.Logger, opts Options) *Router {
	if hub == nil {
		hub = NewHub()
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.defaults()
	return &Router{hub: hub, verifier: verifier, chat: chat, presence: presence, metrics: m, log: log, opts: opts}
}

func (r *Router) Hub() *Hub { return r.hub }

// HandleAuth verifies the credential and joins c to its user's room. On
// failure nothing is joined and the caller drops the session.
func (r *Router) HandleAuth(ctx context.Context, c *Client, token string) (string, error) {
	userID, err := r.verifier.Verify(token)
	if err != nil {
		r.metrics.SessionRejected()
		return "", apperr.Unauthenticated(msgAuthFailed)
	}
	c.userID = userID
	r.hub.Join(c)
	r.metrics.SessionOpened()
	r.updateOnline()

	if r.presence != nil {
		pctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
		if err := r.presence.AddSession(pctx, userID, c.id); err != nil {
			r.log.Warn("presence add failed", zap.String("user_id", userID), zap.Error(err))
		}
		cancel()
	}
	c.enqueue(encode(EventConnected, ConnectedPayload{UserID: userID, SessionID: c.id}))
	r.log.Debug("session joined", zap.String("user_id", userID), zap.String("session_id", c.id))
	return userID, nil
}

// HandleSend persists then broadcasts. Failures are reported to c only.
func (r *Router) HandleSend(ctx context.Context, c *Client, in PrivateMessageIn) (*models.Message, error) {
	if !c.limiter.Allow() {
		r.metrics.SendError("rate_limited")
		c.enqueue(encode(EventError, ErrorPayload{Message: msgRateLimited}))
		return nil, apperr.RateLimited(msgRateLimited)
	}

	sctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()
	m, err := r.chat.Send(sctx, c.userID, in.ReceiverID, in.Message)
	if err != nil {
		reason := "rejected"
		if apperr.Internal(err) {
			reason = "storage"
			r.log.Error("persist message failed",
				zap.String("sender_id", c.userID),
				zap.String("receiver_id", in.ReceiverID),
				zap.Error(err))
		}
		r.metrics.SendError(reason)
		c.enqueue(encode(EventError, ErrorPayload{Message: msgSendFailed, Reason: apperr.PublicMessage(err)}))
		return nil, err
	}
	r.metrics.MessageSent("ws")
	r.Deliver(m)
	return m, nil
}

// Deliver broadcasts m to the receiver's room and the sender's room (once
// when they are the same user).
func (r *Router) Deliver(m *models.Message) {
	frame := encode(EventPrivateMessage, m)
	r.emit(m.ReceiverID, frame)
	if m.SenderID != m.ReceiverID {
		r.emit(m.SenderID, frame)
	}
}

func (r *Router) emit(userID string, frame []byte) {
	delivered, dropped := r.hub.Emit(userID, frame)
	r.metrics.Delivered(delivered)
	for i := 0; i < dropped; i++ {
		r.metrics.Dropped()
	}
	if dropped > 0 {
		r.log.Warn("dropped frame for slow session", zap.String("user_id", userID), zap.Int("dropped", dropped))
	}
}

// HandleFrame decodes one inbound text frame and dispatches it.
func (r *Router) HandleFrame(ctx context.Context, c *Client, data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.enqueue(encode(EventError, ErrorPayload{Message: msgBadFrame}))
		return
	}
	switch f.Type {
	case EventPrivateMessage:
		var in PrivateMessageIn
		if err := json.Unmarshal(f.Payload, &in); err != nil {
			c.enqueue(encode(EventError, ErrorPayload{Message: msgBadFrame}))
			return
		}
		_, _ = r.HandleSend(ctx, c, in)
	default:
		// unknown events are ignored
	}
}

// HandleDisconnect removes c from its room. Nothing else changes.
func (r *Router) HandleDisconnect(ctx context.Context, c *Client) {
	defer c.close()
	if c.userID == "" || !r.hub.Leave(c) {
		return
	}
	r.metrics.SessionClosed()
	r.updateOnline()
	if r.presence != nil {
		pctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
		defer cancel()
		if err := r.presence.RemoveSession(pctx, c.userID, c.id); err != nil {
			r.log.Warn("presence remove failed", zap.String("user_id", c.userID), zap.Error(err))
		}
	}
	r.log.Debug("session left", zap.String("user_id", c.userID), zap.String("session_id", c.id))
}

func (r *Router) updateOnline() {
	users, _ := r.hub.Counts()
	r.metrics.SetOnlineUsers(users)
}

// Shutdown closes every open session.
func (r *Router) Shutdown() { r.hub.CloseAll() }
