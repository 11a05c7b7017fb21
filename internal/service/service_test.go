package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedEvent struct {
	kind string
	id   string
}

type recordingEvents struct {
	ch chan recordedEvent
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{ch: make(chan recordedEvent, 64)}
}

func (r *recordingEvents) MessageSent(_ context.Context, m *models.Message) error {
	r.ch <- recordedEvent{kind: "message.sent", id: m.ID}
	return nil
}

func (r *recordingEvents) ConnectionChanged(_ context.Context, kind string, req *models.ConnectionRequest) error {
	r.ch <- recordedEvent{kind: kind, id: req.ID}
	return nil
}

func (r *recordingEvents) next(t *testing.T) recordedEvent {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return recordedEvent{}
	}
}

// failingMessages fails every write so storage errors can be observed.
type failingMessages struct {
	repository.MessageRepository
}

func (failingMessages) Insert(context.Context, *models.Message) error {
	return errors.New("connection reset by peer")
}

type fixture struct {
	store  *repository.MemoryStore
	clock  *Clock
	events *recordingEvents
	msgs   *MessageStore
	chat   *ChatService
	graph  *ConnectionGraph
	convs  *ConversationAggregator
}

func newFixture(t *testing.T, opts GraphOptions, users ...string) *fixture {
	t.Helper()
	f := &fixture{
		store:  repository.NewMemoryStore(),
		clock:  NewClock(),
		events: newRecordingEvents(),
	}
	for _, id := range users {
		require.NoError(t, f.store.Create(context.Background(), &models.User{
			ID: id, Name: id, Email: id + "@nexus.test", Role: models.RoleEntrepreneur,
		}))
	}
	log := zaptest.NewLogger(t)
	f.msgs = NewMessageStore(f.store, f.clock)
	f.chat = NewChatService(f.msgs, f.store, f.events, log)
	f.graph = NewConnectionGraph(f.store, f.store, f.events, f.clock, opts, log)
	f.convs = NewConversationAggregator(f.msgs, f.store)
	return f
}

func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
}
