package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const EventMessageSent = "message.sent"

// Envelope is the JSON value of every published record.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes domain events to Kafka. Writes go through a circuit
// breaker so a broker outage fails fast instead of stalling callers.
type Producer struct {
	messages    writer
	connections writer
	cb          *gobreaker.CircuitBreaker
	log         *zap.Logger
}

func newWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewProducer(brokers []string, messageTopic, connectionTopic string, log *zap.Logger) *Producer {
	return newProducer(newWriter(brokers, messageTopic), newWriter(brokers, connectionTopic), log)
}

func newProducer(messages, connections writer, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Producer{messages: messages, connections: connections, cb: cb, log: log}
}

func (p *Producer) publish(ctx context.Context, w writer, key, kind string, payload any) error {
	b, err := json.Marshal(Envelope{Type: kind, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return err
	}
	msg := kafkago.Message{
		Key:     []byte(key),
		Value:   b,
		Time:    time.Now(),
		Headers: []kafkago.Header{{Key: "type", Value: []byte(kind)}},
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, w.WriteMessages(ctx, msg)
	})
	return err
}

// MessageSent keys by conversation so one pair's messages stay ordered on a partition.
func (p *Producer) MessageSent(ctx context.Context, m *models.Message) error {
	return p.publish(ctx, p.messages, models.PairKey(m.SenderID, m.ReceiverID), EventMessageSent, m)
}

func (p *Producer) ConnectionChanged(ctx context.Context, kind string, r *models.ConnectionRequest) error {
	payload := map[string]any{
		"request_id":  r.ID,
		"sender_id":   r.SenderID,
		"receiver_id": r.ReceiverID,
		"status":      r.Status,
	}
	return p.publish(ctx, p.connections, r.PairKey, kind, payload)
}

func (p *Producer) State() gobreaker.State { return p.cb.State() }

func (p *Producer) Close() error {
	err := p.messages.Close()
	if cerr := p.connections.Close(); err == nil {
		err = cerr
	}
	return err
}
