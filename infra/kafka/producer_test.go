package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaramaPublisherSendsKeyedMessage(t *testing.T) {
	producer := mocks.NewSyncProducer(t, SaramaConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		assert.Equal(t, []byte("payload"), val)
		return nil
	})

	p := NewSaramaPublisherFrom(producer, "rbtree.events")
	require.NoError(t, p.Publish(context.Background(), []byte("1"), []byte("payload")))
	require.NoError(t, p.Close())
}

func TestSaramaPublisherReturnsFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, SaramaConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewSaramaPublisherFrom(producer, "rbtree.events")
	err := p.Publish(context.Background(), []byte("1"), []byte("x"))
	require.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New("carrier-pigeon", []string{"localhost:9092"}, "t")
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestNewWriterPublisher(t *testing.T) {
	p, err := New(DriverWriter, []string{"localhost:9092"}, "rbtree.events")
	require.NoError(t, err)
	w, ok := p.(*WriterPublisher)
	require.True(t, ok)
	assert.Equal(t, "rbtree.events", w.writer.Topic)
	require.NoError(t, p.Close())
}
