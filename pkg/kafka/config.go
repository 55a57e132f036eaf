package kafka

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "sales-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1, // All replicas
		WriteTimeout: 10 * time.Second,
	}
}

// Topics contains all sales Kafka topic names
var Topics = struct {
	SalesEvents string
}{
	SalesEvents: "sales.lifecycle.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for sales topics
func DefaultTopicConfigs() []TopicConfig {
	return []TopicConfig{
		{Name: Topics.SalesEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: 7 * 24 * 60 * 60 * 1000}, // 7 days
	}
}

// EnsureTopics creates the given topics on the cluster controller.
// Existing topics surface as an error from the broker; callers treat
// that as non-fatal.
func EnsureTopics(brokers []string, configs []TopicConfig) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to find controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to dial controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, 0, len(configs))
	for _, config := range configs {
		topicConfig := kafka.TopicConfig{
			Topic:             config.Name,
			NumPartitions:     config.Partitions,
			ReplicationFactor: config.ReplicationFactor,
		}
		if config.RetentionMs > 0 {
			topicConfig.ConfigEntries = []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(config.RetentionMs, 10)},
			}
		}
		topicConfigs = append(topicConfigs, topicConfig)
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	return nil
}
