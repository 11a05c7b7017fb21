package service

import (
	"context"
	"sort"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
)

// ConversationAggregator derives the recent-conversations view from the
// MessageStore on every call.
type ConversationAggregator struct {
	store *MessageStore
	users repository.UserRepository
}

func NewConversationAggregator(store *MessageStore, users repository.UserRepository) *ConversationAggregator {
	return &ConversationAggregator{store: store, users: users}
}

// RecentConversations returns one entry per peer, newest last message
// first, ties broken by peer id ascending.
func (a *ConversationAggregator) RecentConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	peers, err := a.store.RecentPeers(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Conversation, 0, len(peers))
	for _, peer := range peers {
		last, err := a.store.LastBetween(ctx, userID, peer)
		if err != nil {
			return nil, err
		}
		if last == nil {
			continue
		}
		out = append(out, models.Conversation{
			Peer:        peer,
			LastMessage: *last,
			Unread:      last.ReceiverID == userID && !last.Read,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].LastMessage.Timestamp, out[j].LastMessage.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].Peer < out[j].Peer
	})

	if a.users != nil && len(out) > 0 {
		byID, err := summaries(ctx, a.users, peers)
		if err != nil {
			return nil, err
		}
		for i := range out {
			if sum, ok := byID[out[i].Peer]; ok {
				sum := sum
				out[i].PeerUser = &sum
			}
		}
	}
	return out, nil
}
