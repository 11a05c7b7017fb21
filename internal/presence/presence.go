package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the set of live session ids per user in Redis.
// Keys:
//   - <prefix>:conn:<userID>     set of session ids
//   - <prefix>:presence:<userID> json {status,last_seen}
type Store struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

type Presence struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

func NewStore(client redis.Cmdable, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "nexus"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) connKey(userID string) string     { return fmt.Sprintf("%s:conn:%s", s.prefix, userID) }
func (s *Store) presenceKey(userID string) string { return fmt.Sprintf("%s:presence:%s", s.prefix, userID) }

func (s *Store) AddSession(ctx context.Context, userID, sessionID string) error {
	pres, _ := json.Marshal(Presence{Status: StatusOnline, LastSeen: time.Now().Unix()})
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.connKey(userID), sessionID)
		p.Expire(ctx, s.connKey(userID), s.ttl)
		p.Set(ctx, s.presenceKey(userID), pres, s.ttl)
		return nil
	})
	return err
}

// RemoveSession drops one session and marks the user offline when it was the last.
func (s *Store) RemoveSession(ctx context.Context, userID, sessionID string) error {
	if err := s.client.SRem(ctx, s.connKey(userID), sessionID).Err(); err != nil {
		return err
	}
	n, err := s.client.SCard(ctx, s.connKey(userID)).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	pres, _ := json.Marshal(Presence{Status: StatusOffline, LastSeen: time.Now().Unix()})
	return s.client.Set(ctx, s.presenceKey(userID), pres, s.ttl).Err()
}

func (s *Store) Online(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.SCard(ctx, s.connKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the last recorded presence; unknown users are offline.
func (s *Store) Get(ctx context.Context, userID string) (Presence, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Presence{Status: StatusOffline}, nil
	}
	if err != nil {
		return Presence{}, err
	}
	var p Presence
	if err := json.Unmarshal(b, &p); err != nil {
		return Presence{}, err
	}
	return p, nil
}
