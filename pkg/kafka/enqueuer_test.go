package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/pkg/circuit_breaker"
)

type payload struct {
	BookID string `json:"bookId"`
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		require.JSONEq(t, `{"bookId":"b1"}`, string(val))
		return nil
	})

	q := NewEnqueuer(producer, circuit_breaker.NewCircuitBreaker(4, time.Second, 0.5, 1))
	require.NoError(t, q.Enqueue(LibraryTopic, "b1", payload{BookID: "b1"}))
	require.NoError(t, producer.Close())
}

func TestEnqueuer_EnqueueOpensBreaker(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	q := NewEnqueuer(producer, circuit_breaker.NewCircuitBreaker(1, time.Minute, 1, 1))
	require.ErrorIs(t, q.Enqueue(LibraryTopic, "", payload{}), sarama.ErrOutOfBrokers)
	require.ErrorIs(t, q.Enqueue(LibraryTopic, "", payload{}), circuit_breaker.ErrOpenCB)
	require.NoError(t, producer.Close())
}
