package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/retail-platform/sales-service/internal/domain"
	"github.com/retail-platform/sales-service/pkg/kafka"
	"github.com/retail-platform/sales-service/pkg/logging"
	"github.com/retail-platform/sales-service/pkg/metrics"
	"github.com/retail-platform/sales-service/pkg/resilience"
)

// eventEnvelope is the wire shape of a sale lifecycle event
type eventEnvelope struct {
	EventKind    string    `json:"eventKind"`
	SaleOrItemID string    `json:"saleOrItemId"`
	UTCTimestamp time.Time `json:"utcTimestamp"`
}

// messageProducer is the subset of the Kafka producer the publisher needs
type messageProducer interface {
	PublishMessage(ctx context.Context, topic string, msg kafka.Message) error
	PublishBatch(ctx context.Context, topic string, msgs []kafka.Message) error
}

// KafkaPublisher implements domain.EventPublisher on top of Kafka. The
// broker is wrapped in a circuit breaker so a broker outage cannot
// stall the request path.
type KafkaPublisher struct {
	producer messageProducer
	breaker  *resilience.CircuitBreaker
	topic    string
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewKafkaPublisher creates a new KafkaPublisher
func NewKafkaPublisher(producer messageProducer, logger *logging.Logger, m *metrics.Metrics) *KafkaPublisher {
	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("kafka-publisher"),
		logger.Logger,
	)

	return &KafkaPublisher{
		producer: producer,
		breaker:  breaker,
		topic:    kafka.Topics.SalesEvents,
		logger:   logger,
		metrics:  m,
	}
}

func toMessage(event domain.DomainEvent) (kafka.Message, error) {
	envelope := eventEnvelope{
		EventKind:    string(event.Kind()),
		SaleOrItemID: event.SubjectID(),
		UTCTimestamp: event.OccurredAt().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize event: %w", err)
	}

	return kafka.Message{
		Key:   event.SubjectID(),
		Value: payload,
		Headers: map[string]string{
			"event-kind": string(event.Kind()),
		},
		Time: envelope.UTCTimestamp,
	}, nil
}

// Publish serializes a domain event and sends it to the sales events topic
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	start := time.Now()

	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	_, err = p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishMessage(ctx, p.topic, msg)
	})

	p.observe(ctx, []domain.DomainEvent{event}, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}
	return nil
}

// PublishBatch serializes several events from one mutation and sends
// them in a single writer call
func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := toMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishBatch(ctx, p.topic, msgs)
	})

	p.observe(ctx, events, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to publish event batch to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) observe(ctx context.Context, events []domain.DomainEvent, duration time.Duration, err error) {
	for _, event := range events {
		if p.metrics != nil {
			p.metrics.RecordKafkaPublish(p.topic, string(event.Kind()), err == nil, duration)
		}
		p.logger.KafkaPublish(ctx, p.topic, string(event.Kind()), err == nil, duration)
	}
}

// Topic returns the topic this publisher publishes to
func (p *KafkaPublisher) Topic() string {
	return p.topic
}
