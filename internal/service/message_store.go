package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"github.com/google/uuid"
)

// MessageStore is the append-only log of direct messages. It does not check
// that sender or receiver exist; ChatService does.
type MessageStore struct {
	repo  repository.MessageRepository
	clock *Clock
}

func NewMessageStore(repo repository.MessageRepository, clock *Clock) *MessageStore {
	if clock == nil {
		clock = NewClock()
	}
	return &MessageStore{repo: repo, clock: clock}
}

func (s *MessageStore) Append(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("message is required")
	}
	if senderID == "" || receiverID == "" {
		return nil, apperr.Validation("sender and receiver are required")
	}
	m := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, apperr.Storage("messages.insert", err)
	}
	return m, nil
}

func (s *MessageStore) ListBetween(ctx context.Context, a, b string) ([]*models.Message, error) {
	out, err := s.repo.ListBetween(ctx, a, b)
	if err != nil {
		return nil, apperr.Storage("messages.list", err)
	}
	return out, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, receiverID, peerID string) (int64, error) {
	n, err := s.repo.MarkRead(ctx, receiverID, peerID)
	if err != nil {
		return 0, apperr.Storage("messages.mark_read", err)
	}
	return n, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Storage("messages.count_unread", err)
	}
	return n, nil
}

func (s *MessageStore) RecentPeers(ctx context.Context, userID string) ([]string, error) {
	peers, err := s.repo.RecentPeers(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("messages.recent_peers", err)
	}
	return peers, nil
}

// LastBetween returns the newest message in either direction, or nil when
// the pair never exchanged one.
func (s *MessageStore) LastBetween(ctx context.Context, a, b string) (*models.Message, error) {
	m, err := s.repo.LastBetween(ctx, a, b)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("messages.last", err)
	}
	return m, nil
}
