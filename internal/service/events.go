package service

import (
	"context"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
)

// Connection event kinds.
const (
	EventConnectionRequested = "connection.requested"
	EventConnectionAccepted  = "connection.accepted"
	EventConnectionRejected  = "connection.rejected"
	EventConnectionRemoved   = "connection.removed"
)

// EventPublisher receives domain events after the state change is durable.
// Failures never roll back the change.
type EventPublisher interface {
	MessageSent(ctx context.Context, m *models.Message) error
	ConnectionChanged(ctx context.Context, kind string, r *models.ConnectionRequest) error
}

type nopEvents struct{}

func (nopEvents) MessageSent(context.Context, *models.Message) error { return nil }

func (nopEvents) ConnectionChanged(context.Context, string, *models.ConnectionRequest) error {
	return nil
}

func orNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopEvents{}
	}
	return p
}
