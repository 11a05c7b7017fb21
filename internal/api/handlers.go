package api

import (
	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/auth"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errBadBody = apperr.Validation("invalid request body")

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req auth.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}
	sess, err := s.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}
	sess, err := s.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (s *Server) verifyToken(c *fiber.Ctx) error {
	u, err := s.auth.Me(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true, "user": u.Summary()})
}

type sendMessageReq struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}
	m, err := s.chat.Send(c.UserContext(), currentUser(c), req.ReceiverID, req.Message)
	if err != nil {
		s.metrics.SendError("rest")
		return err
	}
	s.metrics.MessageSent("rest")
	s.router.Deliver(m)
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Server) history(c *fiber.Ctx) error {
	msgs, err := s.chat.History(c.UserContext(), currentUser(c), c.Params("peerId"))
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return c.JSON(msgs)
}

func (s *Server) markRead(c *fiber.Ctx) error {
	n, err := s.chat.MarkRead(c.UserContext(), currentUser(c), c.Params("peerId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Messages marked as read", "updated": n})
}

func (s *Server) unreadCount(c *fiber.Ctx) error {
	n, err := s.chat.UnreadCount(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"unreadCount": n})
}

func (s *Server) recentConversations(c *fiber.Ctx) error {
	convs, err := s.convs.RecentConversations(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return c.JSON(convs)
}

func (s *Server) listConnections(c *fiber.Ctx) error {
	users, err := s.graph.ListConnections(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return c.JSON(users)
}

func (s *Server) pendingRequests(c *fiber.Ctx) error {
	reqs, err := s.graph.PendingFor(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []*models.ConnectionRequest{}
	}
	return c.JSON(reqs)
}

func (s *Server) pendingCount(c *fiber.Ctx) error {
	n, err := s.graph.CountPending(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": n})
}

type connectionReq struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

func (s *Server) sendRequest(c *fiber.Ctx) error {
	var req connectionReq
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}
	r, err := s.graph.Request(c.UserContext(), currentUser(c), req.ReceiverID, req.Message)
	s.metrics.ConnectionOp("request", err)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Connection request sent successfully",
		"request": r,
	})
}

func (s *Server) resolveRequest(c *fiber.Ctx) error {
	decision := models.Decision(c.Params("action"))
	r, err := s.graph.Resolve(c.UserContext(), c.Params("id"), currentUser(c), decision)
	action := "resolve"
	if decision.Valid() {
		action = string(decision)
	}
	s.metrics.ConnectionOp(action, err)
	if err != nil {
		return err
	}
	s.log.Info("connection request resolved",
		zap.String("request_id", r.ID),
		zap.String("status", string(r.Status)))
	return c.JSON(fiber.Map{
		"message": "Connection request " + string(r.Status) + " successfully",
		"request": r,
	})
}

func (s *Server) removeConnection(c *fiber.Ctx) error {
	err := s.graph.Remove(c.UserContext(), currentUser(c), c.Params("connectionId"))
	s.metrics.ConnectionOp("remove", err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Connection removed"})
}

func (s *Server) connectionStatus(c *fiber.Ctx) error {
	st, err := s.graph.Status(c.UserContext(), currentUser(c), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) userPresence(c *fiber.Ctx) error {
	id := c.Params("userId")
	online := s.router.Hub().Online(id)
	out := fiber.Map{"userId": id}
	if s.presence != nil {
		ctx := c.UserContext()
		if !online {
			remote, err := s.presence.Online(ctx, id)
			if err != nil {
				s.log.Warn("presence lookup failed", zap.String("user_id", id), zap.Error(err))
			}
			online = remote
		}
		p, err := s.presence.Get(ctx, id)
		if err != nil {
			s.log.Warn("last seen lookup failed", zap.String("user_id", id), zap.Error(err))
		} else if p.LastSeen > 0 {
			out["lastSeen"] = p.LastSeen
		}
	}
	out["online"] = online
	return c.JSON(out)
}
