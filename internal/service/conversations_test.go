package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentConversationsScenario(t *testing.T) {
	f := newFixture(t, GraphOptions{}, "A", "B")
	ctx := context.Background()

	_, err := f.chat.Send(ctx, "A", "B", "hi")
	require.NoError(t, err)
	_, err = f.chat.Send(ctx, "B", "A", "hey")
	require.NoError(t, err)

	convs, err := f.convs.RecentConversations(ctx, "A")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "B", convs[0].Peer)
	assert.Equal(t, "hey", convs[0].LastMessage.Body)
	assert.True(t, convs[0].Unread)
	require.NotNil(t, convs[0].PeerUser)
	assert.Equal(t, "B", convs[0].PeerUser.Name)

	_, err = f.chat.MarkRead(ctx, "A", "B")
	require.NoError(t, err)
	convs, err = f.convs.RecentConversations(ctx, "A")
	require.NoError(t, err)
	assert.False(t, convs[0].Unread)

	// from B's side the last message is its own, never unread
	convs, err = f.convs.RecentConversations(ctx, "B")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.False(t, convs[0].Unread)
}

func TestRecentConversationsOrdering(t *testing.T) {
	f := newFixture(t, GraphOptions{}, "u", "p1", "p2", "p3", "p4")
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := map[string]time.Time{
		"p1": base.Add(1 * time.Second),
		"p2": base.Add(3 * time.Second),
		"p3": base.Add(2 * time.Second),
	}
	for _, peer := range []string{"p1", "p2", "p3"} {
		ts := stamps[peer]
		f.clock.now = func() time.Time { return ts }
		f.clock.last = time.Time{}
		_, err := f.msgs.Append(ctx, peer, "u", "from "+peer)
		require.NoError(t, err)
	}

	convs, err := f.convs.RecentConversations(ctx, "u")
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, []string{"p2", "p3", "p1"}, []string{convs[0].Peer, convs[1].Peer, convs[2].Peer})
	for i := 1; i < len(convs); i++ {
		assert.False(t, convs[i].LastMessage.Timestamp.After(convs[i-1].LastMessage.Timestamp))
	}
}

func TestRecentConversationsTieBreakByPeer(t *testing.T) {
	f := newFixture(t, GraphOptions{}, "u", "zed", "amy", "kim")
	ctx := context.Background()

	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, peer := range []string{"zed", "amy", "kim"} {
		f.clock.now = func() time.Time { return same }
		f.clock.last = time.Time{}
		_, err := f.msgs.Append(ctx, "u", peer, "ping")
		require.NoError(t, err)
	}

	convs, err := f.convs.RecentConversations(ctx, "u")
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "amy", convs[0].Peer)
	assert.Equal(t, "kim", convs[1].Peer)
	assert.Equal(t, "zed", convs[2].Peer)
}

func TestRecentConversationsEmpty(t *testing.T) {
	f := newFixture(t, GraphOptions{}, "lonely")
	convs, err := f.convs.RecentConversations(context.Background(), "lonely")
	require.NoError(t, err)
	assert.Empty(t, convs)
}
