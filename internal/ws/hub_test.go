package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func member(user string) *Client {
	c := newClient(nil, 1, 0)
	c.userID = user
	return c
}

func TestHubRooms(t *testing.T) {
	h := NewHub()
	a1, a2, b := member("a"), member("a"), member("b")
	h.Join(a1)
	h.Join(a2)
	h.Join(b)

	users, sessions := h.Counts()
	assert.Equal(t, 2, users)
	assert.Equal(t, 3, sessions)

	delivered, dropped := h.Emit("a", []byte("1"))
	assert.Equal(t, 2, delivered)
	assert.Zero(t, dropped)

	// buffer of one is now full
	delivered, dropped = h.Emit("a", []byte("2"))
	assert.Zero(t, delivered)
	assert.Equal(t, 2, dropped)

	delivered, _ = h.Emit("nobody", []byte("3"))
	assert.Zero(t, delivered)

	assert.True(t, h.Leave(a1))
	assert.False(t, h.Leave(a1))
	assert.True(t, h.Online("a"))
	assert.True(t, h.Leave(a2))
	assert.False(t, h.Online("a"))

	h.CloseAll()
	assert.False(t, b.enqueue([]byte("x")))
}
