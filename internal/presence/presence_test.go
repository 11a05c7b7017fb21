package presence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	s := NewStore(nil, "", 0)
	assert.Equal(t, "nexus:conn:u1", s.connKey("u1"))
	assert.Equal(t, "nexus:presence:u1", s.presenceKey("u1"))
	assert.Equal(t, 24*time.Hour, s.ttl)
}

// unreachable points at a closed port so every command fails fast.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestErrorsPropagate(t *testing.T) {
	s := NewStore(unreachable(t), "test", time.Minute)
	ctx := context.Background()

	require.Error(t, s.AddSession(ctx, "u1", "s1"))
	require.Error(t, s.RemoveSession(ctx, "u1", "s1"))
	_, err := s.Online(ctx, "u1")
	require.Error(t, err)
	_, err = s.Get(ctx, "u1")
	require.Error(t, err)
}
