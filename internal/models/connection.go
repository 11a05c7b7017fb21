package models

import (
	"sort"
	"strings"
	"time"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Terminal() bool { return s == StatusAccepted || s == StatusRejected }

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool { return d == DecisionAccept || d == DecisionReject }

func (d Decision) Status() RequestStatus {
	if d == DecisionAccept {
		return StatusAccepted
	}
	return StatusRejected
}

// ConnectionRequest is the single record of the pending/accepted/rejected
// state machine for a pair of users. Active is true while the record blocks
// new requests on the same unordered pair (pending or accepted).
type ConnectionRequest struct {
	ID         string        `bson:"_id" json:"_id"`
	SenderID   string        `bson:"sender_id" json:"senderId"`
	ReceiverID string        `bson:"receiver_id" json:"receiverId"`
	Status     RequestStatus `bson:"status" json:"status"`
	Message    string        `bson:"message,omitempty" json:"message,omitempty"`
	PairKey    string        `bson:"pair_key" json:"-"`
	Active     bool          `bson:"active" json:"-"`
	CreatedAt  time.Time     `bson:"created_at" json:"createdAt"`
	ResolvedAt *time.Time    `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`

	Sender *UserSummary `bson:"-" json:"sender,omitempty"`
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

type ConnectionState string

const (
	StateConnected       ConnectionState = "connected"
	StatePendingSent     ConnectionState = "pending_sent"
	StatePendingReceived ConnectionState = "pending_received"
	StateNotConnected    ConnectionState = "not_connected"
)

type ConnectionStatus struct {
	Status    ConnectionState `json:"status"`
	RequestID string          `json:"requestId,omitempty"`
}
