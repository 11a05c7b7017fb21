package service

import (
	"context"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"go.uber.org/zap"
)

const eventTimeout = 5 * time.Second

// ChatService checks participants, persists through the MessageStore and
// emits message.sent events. Both the REST and realtime paths send here.
type ChatService struct {
	store  *MessageStore
	users  repository.UserRepository
	events EventPublisher
	log    *zap.Logger
}

func NewChatService(store *MessageStore, users repository.UserRepository, events EventPublisher, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{store: store, users: users, events: orNop(events), log: log}
}

func (s *ChatService) Send(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	if _, err := findUser(ctx, s.users, senderID, "sender"); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.users, receiverID, "receiver"); err != nil {
		return nil, err
	}
	m, err := s.store.Append(ctx, senderID, receiverID, body)
	if err != nil {
		return nil, err
	}

	ev := *m
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := s.events.MessageSent(ctx, &ev); err != nil {
			s.log.Warn("publish message.sent failed", zap.String("message_id", ev.ID), zap.Error(err))
		}
	}()
	return m, nil
}

// History lists every message between user and peer, oldest first.
func (s *ChatService) History(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	if _, err := findUser(ctx, s.users, peerID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListBetween(ctx, userID, peerID)
}

func (s *ChatService) MarkRead(ctx context.Context, receiverID, peerID string) (int64, error) {
	return s.store.MarkRead(ctx, receiverID, peerID)
}

func (s *ChatService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}
