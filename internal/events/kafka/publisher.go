// Package kafka bridges domain events onto a Kafka topic for downstream
// consumers. Records are keyed by application id so one application's events
// stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"onboard/internal/events"
	"onboard/pkg/requestcontext"
)

const headerEventName = "event-name"

// Envelope is the JSON value of every record.
type Envelope struct {
	Name        string          `json:"name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  string          `json:"occurred_at"`
	RequestID   string          `json:"request_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher connects a producer to brokers. The connection is lazy; the
// first produce or EnsureTopic surfaces broker errors.
func NewPublisher(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &Publisher{client: client, topic: topic}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Handle satisfies events.Handler. It produces synchronously so a broker
// failure surfaces in the dispatcher's log.
func (p *Publisher) Handle(ctx context.Context, e events.Event) error {
	record, err := Encode(ctx, e)
	if err != nil {
		return err
	}
	record.Topic = p.topic
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", e.Name(), err)
	}
	p.logger.DebugContext(ctx, "domain event published",
		"event", e.Name(),
		"application_id", e.AggregateID(),
	)
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}

// Encode builds the record for a domain event.
func Encode(ctx context.Context, e events.Event) (*kgo.Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Name(), err)
	}
	value, err := json.Marshal(Envelope{
		Name:        e.Name(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt().UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
		RequestID:   requestcontext.RequestID(ctx),
		Payload:     payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return &kgo.Record{
		Key:       []byte(e.AggregateID()),
		Value:     value,
		Timestamp: e.OccurredAt(),
		Headers:   []kgo.RecordHeader{{Key: headerEventName, Value: []byte(e.Name())}},
	}, nil
}
