package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const messagesNS = "test.messages"

func newMessageRepo(mt *mtest.T) *MongoMessageRepo {
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	r, err := NewMongoMessageRepo(context.Background(), mt.DB, time.Second)
	require.NoError(mt, err)
	mt.ClearEvents()
	return r
}

func messageDoc(id, from, to, body string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "sender_id", Value: from},
		{Key: "receiver_id", Value: to},
		{Key: "body", Value: body},
		{Key: "timestamp", Value: at},
		{Key: "read", Value: false},
	}
}

// assertBetweenFind checks a find against both directions of the pair,
// ordered on timestamp in dir.
func assertBetweenFind(mt *mtest.T, dir int64) {
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, "find", evt.CommandName)

	or, err := evt.Command.LookupErr("filter", "$or")
	require.NoError(mt, err)
	branches, err := or.Array().Values()
	require.NoError(mt, err)
	assert.Len(mt, branches, 2)

	ts, err := evt.Command.LookupErr("sort", "timestamp")
	require.NoError(mt, err)
	assert.Equal(mt, dir, ts.AsInt64())
	id, err := evt.Command.LookupErr("sort", "_id")
	require.NoError(mt, err)
	assert.Equal(mt, dir, id.AsInt64())
}

func TestMongoListBetween(t *testing.T) {
	mt := mockMongo(t)

	mt.Run("both directions oldest first", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch,
			messageDoc("m1", "a", "b", "hi", base),
			messageDoc("m2", "b", "a", "hey", base.Add(time.Second)),
		))

		list, err := r.ListBetween(context.Background(), "a", "b")
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "m1", list[0].ID)
		assert.Equal(mt, "hey", list[1].Body)
		assertBetweenFind(mt, 1)
	})

	mt.Run("empty is not nil", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch))
		list, err := r.ListBetween(context.Background(), "a", "b")
		require.NoError(mt, err)
		assert.NotNil(mt, list)
		assert.Empty(mt, list)
	})
}

func TestMongoLastBetween(t *testing.T) {
	mt := mockMongo(t)

	mt.Run("newest message", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch,
			messageDoc("m9", "b", "a", "latest", at),
		))
		m, err := r.LastBetween(context.Background(), "a", "b")
		require.NoError(mt, err)
		assert.Equal(mt, "m9", m.ID)
		assert.True(mt, at.Equal(m.Timestamp))
		assertBetweenFind(mt, -1)
	})

	mt.Run("no messages", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messagesNS, mtest.FirstBatch))
		_, err := r.LastBetween(context.Background(), "a", "b")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoRecentPeers(t *testing.T) {
	mt := mockMongo(t)

	mt.Run("merges both directions", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"b", "c"}}),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"c", "d"}}),
		)
		peers, err := r.RecentPeers(context.Background(), "a")
		require.NoError(mt, err)
		assert.Equal(mt, []string{"b", "c", "d"}, peers)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "receiver_id", lookupString(mt, events[0].Command, "key"))
		assert.Equal(mt, "a", lookupString(mt, events[0].Command, "query", "sender_id"))
		assert.Equal(mt, "sender_id", lookupString(mt, events[1].Command, "key"))
		assert.Equal(mt, "a", lookupString(mt, events[1].Command, "query", "receiver_id"))
	})

	mt.Run("no history", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{}}),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{}}),
		)
		peers, err := r.RecentPeers(context.Background(), "a")
		require.NoError(mt, err)
		assert.Equal(mt, []string{}, peers)
	})

	mt.Run("rejects non string ids", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{int32(7)}}),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{}}),
		)
		_, err := r.RecentPeers(context.Background(), "a")
		assert.Error(mt, err)
	})
}

func TestMongoUnreadAndMarkRead(t *testing.T) {
	mt := mockMongo(t)

	mt.Run("count unread", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(counted(messagesNS, 3))
		n, err := r.CountUnread(context.Background(), "a")
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)
	})

	mt.Run("mark read reports modified", func(mt *mtest.T) {
		r := newMessageRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 3}, bson.E{Key: "nModified", Value: 2},
		))
		n, err := r.MarkRead(context.Background(), "a", "b")
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)

		ups := updateCommands(mt)
		require.Len(mt, ups, 1)
		assert.Equal(mt, "b", lookupString(mt, ups[0], "updates", "0", "q", "sender_id"))
		assert.Equal(mt, "a", lookupString(mt, ups[0], "updates", "0", "q", "receiver_id"))
	})
}
