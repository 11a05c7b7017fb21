package models

import "time"

// Message is immutable after creation except Read, which only moves false to true.
type Message struct {
	ID         string    `bson:"_id" json:"_id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	Body       string    `bson:"body" json:"message"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Read       bool      `bson:"read" json:"read"`
}

// Peer returns the other participant from user's point of view.
func (m *Message) Peer(user string) string {
	if m.SenderID == user {
		return m.ReceiverID
	}
	return m.SenderID
}

// Between reports whether the message was exchanged by a and b in either direction.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

type Conversation struct {
	Peer        string       `json:"peer"`
	PeerUser    *UserSummary `json:"peerUser,omitempty"`
	LastMessage Message      `json:"lastMessage"`
	Unread      bool         `json:"unread"`
}
