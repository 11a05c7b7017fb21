package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWriter struct {
	mu     sync.Mutex
	fail   error
	calls  int
	msgs   []kafkago.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fail != nil {
		return w.fail
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestMessageSentEnvelope(t *testing.T) {
	mw, cw := &fakeWriter{}, &fakeWriter{}
	p := newProducer(mw, cw, zaptest.NewLogger(t))

	m := &models.Message{ID: "m1", SenderID: "b", ReceiverID: "a", Body: "hi", Timestamp: time.Now()}
	require.NoError(t, p.MessageSent(context.Background(), m))

	require.Len(t, mw.msgs, 1)
	assert.Equal(t, "a:b", string(mw.msgs[0].Key))
	var env struct {
		Type    string         `json:"type"`
		Payload models.Message `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(mw.msgs[0].Value, &env))
	assert.Equal(t, EventMessageSent, env.Type)
	assert.Equal(t, "hi", env.Payload.Body)
	assert.Empty(t, cw.msgs)
}

func TestConnectionChanged(t *testing.T) {
	mw, cw := &fakeWriter{}, &fakeWriter{}
	p := newProducer(mw, cw, zaptest.NewLogger(t))

	r := &models.ConnectionRequest{ID: "r1", SenderID: "a", ReceiverID: "b", Status: models.StatusAccepted, PairKey: "a:b"}
	require.NoError(t, p.ConnectionChanged(context.Background(), "connection.accepted", r))
	require.Len(t, cw.msgs, 1)
	assert.Equal(t, "connection.accepted", string(cw.msgs[0].Headers[0].Value))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	mw := &fakeWriter{fail: errors.New("broker down")}
	p := newProducer(mw, &fakeWriter{}, zaptest.NewLogger(t))
	m := &models.Message{ID: "m", SenderID: "a", ReceiverID: "b"}

	for i := 0; i < 5; i++ {
		require.Error(t, p.MessageSent(context.Background(), m))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.MessageSent(context.Background(), m)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, mw.calls)
}

func TestClose(t *testing.T) {
	mw, cw := &fakeWriter{}, &fakeWriter{}
	p := newProducer(mw, cw, nil)
	require.NoError(t, p.Close())
	assert.True(t, mw.closed)
	assert.True(t, cw.closed)
}
