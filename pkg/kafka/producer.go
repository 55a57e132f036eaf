package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is a wire message with its routing key and metadata headers.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// Producer handles publishing messages to Kafka topics. It is safe
// for concurrent use.
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	config  *Config
}

// NewProducer creates a new Kafka producer
func NewProducer(config *Config) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		config:  config,
	}
}

// getWriter returns a writer for the specified topic, creating one if necessary
func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		WriteTimeout: p.config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Async:        false,
	}

	p.writers[topic] = writer
	return writer
}

// PublishMessage publishes a single message to the specified topic
func (p *Producer) PublishMessage(ctx context.Context, topic string, msg Message) error {
	writer := p.getWriter(topic)

	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.Time,
	}

	for key, value := range msg.Headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{
			Key:   key,
			Value: []byte(value),
		})
	}

	if err := writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}

	return nil
}

// PublishBatch publishes multiple messages to a topic
func (p *Producer) PublishBatch(ctx context.Context, topic string, msgs []Message) error {
	messages := make([]kafka.Message, 0, len(msgs))

	for _, msg := range msgs {
		if msg.Time.IsZero() {
			msg.Time = time.Now().UTC()
		}

		kafkaMsg := kafka.Message{
			Key:   []byte(msg.Key),
			Value: msg.Value,
			Time:  msg.Time,
		}

		for key, value := range msg.Headers {
			kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{
				Key:   key,
				Value: []byte(value),
			})
		}

		messages = append(messages, kafkaMsg)
	}

	writer := p.getWriter(topic)
	if err := writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to publish batch to topic %s: %w", topic, err)
	}

	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
