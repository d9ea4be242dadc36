// Package publisher announces resolved snapshots to downstream consumers.
// Publishing is fire-and-forget: broker failures are logged and counted,
// never returned to the resolution that produced the snapshot.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"eligibility/internal/cra/metrics"
	"eligibility/internal/cra/models"
)

// EventSnapshotResolved is the type of every event this package emits.
const EventSnapshotResolved = "cra.snapshot.resolved"

const headerEventType = "event-type"

// Event is the wire payload of a snapshot-resolved message.
type Event struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	CacheKey   string           `json:"cacheKey"`
	TractFIPS  string           `json:"tractFips"`
	OccurredAt time.Time        `json:"occurredAt"`
	Snapshot   *models.Snapshot `json:"snapshot"`
}

// NewEvent wraps a snapshot. OccurredAt is the snapshot's resolution time.
func NewEvent(key string, snap *models.Snapshot) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventSnapshotResolved,
		CacheKey:   key,
		TractFIPS:  snap.Geography.FullTractFIPS,
		OccurredAt: snap.ResolvedAt,
		Snapshot:   snap,
	}
}

// Record encodes the event as a Kafka record keyed by tract, so events for
// one tract stay ordered within a partition.
func (e Event) Record(topic string) (*kgo.Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(e.TractFIPS),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: headerEventType, Value: []byte(e.Type)},
		},
	}, nil
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishSnapshot(context.Context, string, *models.Snapshot) error {
	return nil
}

// KafkaPublisher produces snapshot events asynchronously with franz-go.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a KafkaPublisher.
type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *KafkaPublisher) {
		p.metrics = m
	}
}

// NewKafka connects lazily to brokers; no network I/O happens until the
// first produce or EnsureTopic.
func NewKafka(brokers []string, topic string, opts ...Option) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordDeliveryTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// EnsureTopic creates the topic if it does not already exist.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// PublishSnapshot enqueues an event and returns once it is buffered.
// Delivery errors surface only through logs and metrics.
func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, key string, snap *models.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is required")
	}
	event := NewEvent(key, snap)
	record, err := event.Record(p.topic)
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.metrics.IncPublishFailure()
			p.logger.ErrorContext(ctx, "snapshot event delivery failed",
				"event_id", event.ID,
				"tract_fips", event.TractFIPS,
				"topic", r.Topic,
				"error", err,
			)
			return
		}
		p.logger.DebugContext(ctx, "snapshot event delivered",
			"event_id", event.ID,
			"partition", r.Partition,
			"offset", r.Offset,
		)
	})
	return nil
}

// Flush blocks until buffered events are delivered or ctx ends.
func (p *KafkaPublisher) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close flushes what it can within ctx and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	if err != nil {
		return fmt.Errorf("flush snapshot events: %w", err)
	}
	return nil
}
