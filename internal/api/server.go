package api

import (
	"context"
	"errors"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/auth"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/metrics"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/presence"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/service"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// PresenceReader answers whether a user has a live session on any node and
// when they were last seen.
type PresenceReader interface {
	Online(ctx context.Context, userID string) (bool, error)
	Get(ctx context.Context, userID string) (presence.Presence, error)
}

// BreakerState reports the event publisher's circuit breaker.
type BreakerState interface {
	State() gobreaker.State
}

// PingFunc checks a backing store for /readyz.
type PingFunc func(ctx context.Context) error

// Deps are the collaborators the HTTP surface needs. Presence, Limiter,
// Events, Ready and Gatherer are optional.
type Deps struct {
	Auth     *auth.Service
	Verifier auth.Verifier
	Chat     *service.ChatService
	Convs    *service.ConversationAggregator
	Graph    *service.ConnectionGraph
	Router   *ws.Router
	Presence PresenceReader
	Limiter  Limiter
	Events   BreakerState
	Ready    PingFunc
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

type Server struct {
	auth     *auth.Service
	verifier auth.Verifier
	chat     *service.ChatService
	convs    *service.ConversationAggregator
	graph    *service.ConnectionGraph
	router   *ws.Router
	presence PresenceReader
	limiter  Limiter
	events   BreakerState
	ready    PingFunc
	metrics  *metrics.Metrics
	log      *zap.Logger
	app      *fiber.App
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	s := &Server{
		auth:     d.Auth,
		verifier: d.Verifier,
		chat:     d.Chat,
		convs:    d.Convs,
		graph:    d.Graph,
		router:   d.Router,
		presence: d.Presence,
		limiter:  d.Limiter,
		events:   d.Events,
		ready:    d.Ready,
		metrics:  d.Metrics,
		log:      d.Log,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "business-nexus",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log, s.metrics))
	s.routes(d.Gatherer)
	return s
}

func (s *Server) routes(g prometheus.Gatherer) {
	app := s.app

	app.Get("/healthz", s.healthz)
	app.Get("/readyz", s.readyz)
	if g != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}

	// the websocket authenticates itself with ?token= or a first auth frame
	app.Get("/ws", s.router.Upgrade(), s.router.Handler())

	authGroup := app.Group("/auth", rateLimit(s.limiter, s.log, clientIP))
	authGroup.Post("/register", s.register)
	authGroup.Post("/login", s.login)
	authGroup.Get("/verify-token", requireAuth(s.verifier), s.verifyToken)

	authed := requireAuth(s.verifier)
	limited := rateLimit(s.limiter, s.log, currentUser)

	chat := app.Group("/chat", authed, limited)
	chat.Get("/conversations/recent", s.recentConversations)
	chat.Get("/unread/count", s.unreadCount)
	chat.Post("/message", s.sendMessage)
	chat.Get("/:peerId", s.history)
	chat.Put("/:peerId/read", s.markRead)

	conns := app.Group("/connections", authed, limited)
	conns.Get("/", s.listConnections)
	conns.Get("/requests/pending", s.pendingRequests)
	conns.Get("/requests/pending/count", s.pendingCount)
	conns.Get("/status/:userId", s.connectionStatus)
	conns.Post("/request", s.sendRequest)
	conns.Post("/request/:id/:action", s.resolveRequest)
	conns.Delete("/:connectionId", s.removeConnection)

	app.Get("/presence/:userId", authed, limited, s.userPresence)
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// errorHandler turns apperr kinds into status codes. Storage failures are
// logged here and reach the client only as a generic message.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	if apperr.Internal(err) {
		s.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": apperr.PublicMessage(err)})
}

func (s *Server) healthz(c *fiber.Ctx) error {
	out := fiber.Map{"status": "ok"}
	if s.events != nil {
		// an open breaker degrades event delivery, not the service
		out["events"] = s.events.State().String()
	}
	return c.JSON(out)
}

func (s *Server) readyz(c *fiber.Ctx) error {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.log.Warn("readiness check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
