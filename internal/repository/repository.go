package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotPending is returned when a conditional resolve finds the request
	// already out of the pending state.
	ErrNotPending = errors.New("request is not pending")
	// ErrUserMissing is returned when accepting a request whose sender or
	// receiver no longer exists.
	ErrUserMissing = errors.New("user missing")
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error
	// ListBetween returns both directions ascending by timestamp.
	ListBetween(ctx context.Context, a, b string) ([]*models.Message, error)
	// MarkRead flips unread messages sent by peer to receiver and returns how many changed.
	MarkRead(ctx context.Context, receiver, peer string) (int64, error)
	CountUnread(ctx context.Context, user string) (int64, error)
	RecentPeers(ctx context.Context, user string) ([]string, error)
	LastBetween(ctx context.Context, a, b string) (*models.Message, error)
}

type ConnectionRepository interface {
	// CreateRequest stores a pending request; ErrDuplicate if an active
	// request already exists for the unordered pair.
	CreateRequest(ctx context.Context, r *models.ConnectionRequest) error
	FindRequest(ctx context.Context, id string) (*models.ConnectionRequest, error)
	ActiveBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error)
	RejectedBetween(ctx context.Context, a, b string) (int64, error)
	// Resolve moves a pending request to status. Accepting also adds each
	// user to the other's connection set in the same unit of work.
	Resolve(ctx context.Context, id string, status models.RequestStatus, at time.Time) (*models.ConnectionRequest, error)
	// Disconnect removes the pair from both connection sets and releases the
	// accepted request so the pair can connect again.
	Disconnect(ctx context.Context, a, b string) error
	PendingFor(ctx context.Context, user string) ([]*models.ConnectionRequest, error)
	CountPendingFor(ctx context.Context, user string) (int64, error)
	Connections(ctx context.Context, user string) ([]string, error)
}
