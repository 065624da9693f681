// Package kafka publishes tree mutation events to a Kafka topic. Two
// client libraries are supported behind the Publisher interface.
package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

const (
	DriverSarama = "sarama"
	DriverWriter = "kafka-go"
)

// ErrUnknownDriver is returned by New for an unsupported driver name.
var ErrUnknownDriver = errors.New("kafka: unknown driver")

// Publisher delivers one keyed message synchronously.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

// New builds the publisher selected by driver.
func New(driver string, brokers []string, topic string) (Publisher, error) {
	switch driver {
	case DriverSarama:
		p, err := NewSaramaPublisher(brokers, topic)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverWriter:
		return NewWriterPublisher(brokers, topic), nil
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "%q", driver)
	}
}

// -------------------- sarama --------------------

type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// SaramaConfig is the producer configuration used by NewSaramaPublisher.
func SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func NewSaramaPublisher(brokers []string, topic string) (*SaramaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, SaramaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "sarama producer")
	}
	return NewSaramaPublisherFrom(producer, topic), nil
}

// NewSaramaPublisherFrom wraps an existing producer.
func NewSaramaPublisherFrom(producer sarama.SyncProducer, topic string) *SaramaPublisher {
	return &SaramaPublisher{producer: producer, topic: topic}
}

// Publish ignores ctx: sarama's SyncProducer has no cancellation hook and
// is bounded by its own retry settings.
func (p *SaramaPublisher) Publish(_ context.Context, key, value []byte) error {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return err
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}

// -------------------- kafka-go --------------------

type WriterPublisher struct {
	writer *kafka.Writer
}

func NewWriterPublisher(brokers []string, topic string) *WriterPublisher {
	return &WriterPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *WriterPublisher) Publish(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (p *WriterPublisher) Close() error {
	return p.writer.Close()
}
