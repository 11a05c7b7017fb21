package ws

import "encoding/json"

// Event names on the wire.
const (
	EventAuth           = "auth"
	EventConnected      = "connected"
	EventConnectError   = "connect_error"
	EventPrivateMessage = "private message"
	EventError          = "error"
)

const (
	msgSendFailed  = "Failed to send message"
	msgAuthFailed  = "Authentication error"
	msgRateLimited = "rate limit exceeded"
	msgBadFrame    = "invalid frame"
)

// Frame is the JSON envelope of every websocket text message.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type AuthPayload struct {
	Token string `json:"token"`
}

// PrivateMessageIn is what a client sends.
type PrivateMessageIn struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type ConnectedPayload struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

func encode(kind string, payload any) []byte {
	b, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{kind, payload})
	if err != nil {
		// payloads are plain structs; marshal cannot fail in practice
		panic(err)
	}
	return b
}
