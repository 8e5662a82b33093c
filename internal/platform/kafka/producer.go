package kafka

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
)

// NewSyncProducer builds an idempotent, all-acks sarama producer.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if b := strings.TrimSpace(part); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// ConnectOptional returns a producer when brokers are configured; failures are logged and yield nil.
func ConnectOptional(raw string, logger *slog.Logger) (sarama.SyncProducer, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	brokers := ParseBrokers(raw)
	if len(brokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, order events are not published")
		return nil, func() {}
	}
	producer, err := NewSyncProducer(brokers)
	if err != nil {
		logger.Warn("kafka unavailable, order events are not published", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("kafka producer connected", slog.Any("brokers", brokers))
	return producer, func() { _ = producer.Close() }
}
