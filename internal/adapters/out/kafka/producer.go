// Package kafka publishes integration events and customer notifications to
// Kafka topics.
package kafka

import (
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// NewSyncProducer connects a synchronous producer that waits for the
// partition leader to acknowledge each message.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Timeout = 5 * time.Second
	return sarama.NewSyncProducer(brokers, config)
}

// Producer sends keyed messages to one topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "kafka_producer", "topic", topic),
	}
}

// Publish sends value under key. Messages with the same key land on the same
// partition and keep their order.
func (p *Producer) Publish(key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("Failed to send message", "key", key, "error", err)
		return err
	}
	p.logger.Debug("Message stored", "key", key, "partition", partition, "offset", offset)
	return nil
}
