package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
)

// MemoryStore implements every repository on maps guarded by one mutex, so
// each operation is atomic. Used by tests and by local runs without Mongo.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	messages []*models.Message
	requests map[string]*models.ConnectionRequest
	order    []string // request ids in insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		requests: make(map[string]*models.ConnectionRequest),
	}
}

var (
	_ UserRepository       = (*MemoryStore)(nil)
	_ MessageRepository    = (*MemoryStore)(nil)
	_ ConnectionRepository = (*MemoryStore)(nil)
)

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Connections = append([]string(nil), u.Connections...)
	return &c
}

func cloneRequest(r *models.ConnectionRequest) *models.ConnectionRequest {
	c := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// users

func (s *MemoryStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	if u.Connections == nil {
		u.Connections = []string{}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

// messages

func (s *MemoryStore) Insert(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.messages = append(s.messages, &c)
	return nil
}

func (s *MemoryStore) ListBetween(_ context.Context, a, b string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Message{}
	for _, m := range s.messages {
		if m.Between(a, b) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, receiver, peer string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.SenderID == peer && m.ReceiverID == receiver && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountUnread(_ context.Context, user string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == user && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) RecentPeers(_ context.Context, user string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range s.messages {
		if m.SenderID != user && m.ReceiverID != user {
			continue
		}
		p := m.Peer(user)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) LastBetween(_ context.Context, a, b string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *models.Message
	for _, m := range s.messages {
		if !m.Between(a, b) {
			continue
		}
		if last == nil || !m.Timestamp.Before(last.Timestamp) {
			last = m
		}
	}
	if last == nil {
		return nil, ErrNotFound
	}
	c := *last
	return &c, nil
}

// connections

func (s *MemoryStore) activeLocked(pair string) *models.ConnectionRequest {
	for _, r := range s.requests {
		if r.Active && r.PairKey == pair {
			return r
		}
	}
	return nil
}

func (s *MemoryStore) CreateRequest(_ context.Context, r *models.ConnectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.PairKey == "" {
		r.PairKey = models.PairKey(r.SenderID, r.ReceiverID)
	}
	if s.activeLocked(r.PairKey) != nil {
		return ErrDuplicate
	}
	if _, ok := s.requests[r.ID]; ok {
		return ErrDuplicate
	}
	s.requests[r.ID] = cloneRequest(r)
	s.order = append(s.order, r.ID)
	return nil
}

func (s *MemoryStore) FindRequest(_ context.Context, id string) (*models.ConnectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *MemoryStore) ActiveBetween(_ context.Context, a, b string) (*models.ConnectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.activeLocked(models.PairKey(a, b))
	if r == nil {
		return nil, ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *MemoryStore) RejectedBetween(_ context.Context, a, b string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair := models.PairKey(a, b)
	var n int64
	for _, r := range s.requests {
		if r.PairKey == pair && r.Status == models.StatusRejected {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Resolve(_ context.Context, id string, status models.RequestStatus, at time.Time) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != models.StatusPending {
		return nil, ErrNotPending
	}
	if status == models.StatusAccepted {
		sender, ok1 := s.users[r.SenderID]
		receiver, ok2 := s.users[r.ReceiverID]
		if !ok1 || !ok2 {
			return nil, ErrUserMissing
		}
		sender.Connections = addToSet(sender.Connections, receiver.ID)
		receiver.Connections = addToSet(receiver.Connections, sender.ID)
	}
	r.Status = status
	r.Active = status == models.StatusAccepted
	t := at
	r.ResolvedAt = &t
	return cloneRequest(r), nil
}

func (s *MemoryStore) Disconnect(_ context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, ok1 := s.users[a]
	ub, ok2 := s.users[b]
	if !ok1 || !ok2 || !ua.ConnectedTo(b) {
		return ErrNotFound
	}
	ua.Connections = removeFromSet(ua.Connections, b)
	ub.Connections = removeFromSet(ub.Connections, a)
	if r := s.activeLocked(models.PairKey(a, b)); r != nil && r.Status == models.StatusAccepted {
		r.Active = false
	}
	return nil
}

func (s *MemoryStore) PendingFor(_ context.Context, user string) ([]*models.ConnectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.ConnectionRequest{}
	for _, id := range s.order {
		r := s.requests[id]
		if r.ReceiverID == user && r.Status == models.StatusPending {
			out = append(out, cloneRequest(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) CountPendingFor(ctx context.Context, user string) (int64, error) {
	pending, err := s.PendingFor(ctx, user)
	return int64(len(pending)), err
}

func (s *MemoryStore) Connections(_ context.Context, user string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[user]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string{}, u.Connections...), nil
}

func addToSet(set []string, id string) []string {
	for _, v := range set {
		if v == id {
			return set
		}
	}
	return append(set, id)
}

func removeFromSet(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
