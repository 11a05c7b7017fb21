package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRequestMessageLen = 1000

type GraphOptions struct {
	// AllowRequestAfterReject lets a pair start a new request once the
	// previous one was rejected.
	AllowRequestAfterReject bool
}

// ConnectionGraph owns the request state machine
// none -> pending -> {accepted, rejected} and the symmetric connection sets.
type ConnectionGraph struct {
	repo   repository.ConnectionRepository
	users  repository.UserRepository
	events EventPublisher
	clock  *Clock
	opts   GraphOptions
	log    *zap.Logger
}

func NewConnectionGraph(repo repository.ConnectionRepository, users repository.UserRepository, events EventPublisher, clock *Clock, opts GraphOptions, log *zap.Logger) *ConnectionGraph {
	if clock == nil {
		clock = NewClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ConnectionGraph{repo: repo, users: users, events: orNop(events), clock: clock, opts: opts, log: log}
}

func (g *ConnectionGraph) Request(ctx context.Context, requesterID, targetID, message string) (*models.ConnectionRequest, error) {
	if targetID == "" {
		return nil, apperr.Validation("target user id is required")
	}
	if requesterID == targetID {
		return nil, apperr.Validation("cannot send a connection request to yourself")
	}
	message = strings.TrimSpace(message)
	if len(message) > maxRequestMessageLen {
		return nil, apperr.Validation("message is too long")
	}
	requester, err := findUser(ctx, g.users, requesterID, "requester")
	if err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, g.users, targetID, "user"); err != nil {
		return nil, err
	}
	if requester.ConnectedTo(targetID) {
		return nil, apperr.Conflict("already connected")
	}

	active, err := g.repo.ActiveBetween(ctx, requesterID, targetID)
	switch {
	case err == nil:
		return nil, activeConflict(active)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Storage("connections.active", err)
	}

	if !g.opts.AllowRequestAfterReject {
		n, err := g.repo.RejectedBetween(ctx, requesterID, targetID)
		if err != nil {
			return nil, apperr.Storage("connections.rejected", err)
		}
		if n > 0 {
			return nil, apperr.Conflict("connection request was already rejected")
		}
	}

	req := &models.ConnectionRequest{
		ID:         uuid.NewString(),
		SenderID:   requesterID,
		ReceiverID: targetID,
		Status:     models.StatusPending,
		Message:    message,
		PairKey:    models.PairKey(requesterID, targetID),
		Active:     true,
		CreatedAt:  g.clock.Now(),
	}
	if err := g.repo.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race against a concurrent request on the same pair
			return nil, apperr.Conflict("connection request already pending")
		}
		return nil, apperr.Storage("connections.create", err)
	}
	sum := requester.Summary()
	req.Sender = &sum
	g.emit(EventConnectionRequested, req)
	return req, nil
}

func activeConflict(r *models.ConnectionRequest) error {
	if r.Status == models.StatusAccepted {
		return apperr.Conflict("already connected")
	}
	return apperr.Conflict("connection request already pending")
}

func (g *ConnectionGraph) Resolve(ctx context.Context, requestID, resolverID string, decision models.Decision) (*models.ConnectionRequest, error) {
	if !decision.Valid() {
		return nil, apperr.Validation("action must be accept or reject")
	}
	if requestID == "" {
		return nil, apperr.Validation("request id is required")
	}
	req, err := g.repo.FindRequest(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("connection request not found")
	}
	if err != nil {
		return nil, apperr.Storage("connections.find", err)
	}
	if req.ReceiverID != resolverID {
		return nil, apperr.Forbidden("not authorized to resolve this request")
	}
	if req.Status.Terminal() {
		return nil, apperr.Conflict("connection request already processed")
	}

	resolved, err := g.repo.Resolve(ctx, requestID, decision.Status(), g.clock.Now())
	switch {
	case errors.Is(err, repository.ErrNotPending):
		return nil, apperr.Conflict("connection request already processed")
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound("connection request not found")
	case errors.Is(err, repository.ErrUserMissing):
		return nil, apperr.NotFound("user not found")
	case err != nil:
		return nil, apperr.Storage("connections.resolve", err)
	}

	kind := EventConnectionRejected
	if resolved.Status == models.StatusAccepted {
		kind = EventConnectionAccepted
	}
	g.emit(kind, resolved)
	return resolved, nil
}

// ListConnections returns summaries of every user connected to userID.
func (g *ConnectionGraph) ListConnections(ctx context.Context, userID string) ([]models.UserSummary, error) {
	ids, err := g.repo.Connections(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Storage("connections.list", err)
	}
	byID, err := summaries(ctx, g.users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// PendingFor lists requests awaiting userID's decision, oldest first, with
// the sender summary attached.
func (g *ConnectionGraph) PendingFor(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	reqs, err := g.repo.PendingFor(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("connections.pending", err)
	}
	if len(reqs) == 0 {
		return reqs, nil
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SenderID)
	}
	byID, err := summaries(ctx, g.users, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range reqs {
		if s, ok := byID[r.SenderID]; ok {
			s := s
			r.Sender = &s
		}
	}
	return reqs, nil
}

func (g *ConnectionGraph) CountPending(ctx context.Context, userID string) (int64, error) {
	n, err := g.repo.CountPendingFor(ctx, userID)
	if err != nil {
		return 0, apperr.Storage("connections.pending_count", err)
	}
	return n, nil
}

// Remove drops the connection between userID and otherID on both sides.
func (g *ConnectionGraph) Remove(ctx context.Context, userID, otherID string) error {
	if otherID == "" || otherID == userID {
		return apperr.Validation("invalid connection id")
	}
	err := g.repo.Disconnect(ctx, userID, otherID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("connection not found")
	}
	if err != nil {
		return apperr.Storage("connections.remove", err)
	}
	g.emit(EventConnectionRemoved, &models.ConnectionRequest{
		SenderID:   userID,
		ReceiverID: otherID,
		PairKey:    models.PairKey(userID, otherID),
		CreatedAt:  g.clock.Now(),
	})
	return nil
}

// Status describes the relation between userID and otherID from userID's side.
func (g *ConnectionGraph) Status(ctx context.Context, userID, otherID string) (models.ConnectionStatus, error) {
	if otherID == "" {
		return models.ConnectionStatus{}, apperr.Validation("user id is required")
	}
	me, err := findUser(ctx, g.users, userID, "user")
	if err != nil {
		return models.ConnectionStatus{}, err
	}
	if me.ConnectedTo(otherID) {
		return models.ConnectionStatus{Status: models.StateConnected}, nil
	}
	active, err := g.repo.ActiveBetween(ctx, userID, otherID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.ConnectionStatus{Status: models.StateNotConnected}, nil
	}
	if err != nil {
		return models.ConnectionStatus{}, apperr.Storage("connections.active", err)
	}
	switch {
	case active.Status == models.StatusAccepted:
		return models.ConnectionStatus{Status: models.StateConnected, RequestID: active.ID}, nil
	case active.SenderID == userID:
		return models.ConnectionStatus{Status: models.StatePendingSent, RequestID: active.ID}, nil
	default:
		return models.ConnectionStatus{Status: models.StatePendingReceived, RequestID: active.ID}, nil
	}
}

// emit publishes off the request path; fiber recycles request contexts, so
// the publish gets its own.
func (g *ConnectionGraph) emit(kind string, r *models.ConnectionRequest) {
	ev := *r
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := g.events.ConnectionChanged(ctx, kind, &ev); err != nil {
			g.log.Warn("publish connection event failed", zap.String("kind", kind), zap.String("request_id", ev.ID), zap.Error(err))
		}
	}()
}
