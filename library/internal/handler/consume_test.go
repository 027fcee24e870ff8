package handler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/handler"
	"github.com/Astemirdum/library-catalog/library/internal/model"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx context.Context

	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestConsumer_ConsumeClaim(t *testing.T) {
	t.Parallel()
	eventID := uuid.MustParse("c56a4180-65aa-42ec-a945-5fd21dec0538")
	failingID := uuid.MustParse("d67b5291-76bb-43fd-b056-60e32efd1649")

	var (
		mu       sync.Mutex
		recorded []model.Event
	)
	record := func(_ context.Context, e model.Event) error {
		if e.ID == failingID {
			return errors.New("db down")
		}
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, e)
		return nil
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: []byte(`{"id":"` + eventID.String() + `","type":"loan.created","message":"Anna Petrova borrowed \"Go\"","occurredAt":"2024-03-01T10:00:00Z"}`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte(`not json`)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 3, Value: []byte(`{"id":"` + failingID.String() + `","type":"loan.returned"}`)}
	close(claim.messages)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess := &fakeSession{ctx: ctx}

	consumer := handler.NewConsumer(record, zap.NewNop())
	require.NoError(t, consumer.Setup(sess))
	require.NoError(t, consumer.ConsumeClaim(sess, claim))
	require.NoError(t, consumer.Cleanup(sess))

	require.Len(t, recorded, 1)
	require.Equal(t, eventID, recorded[0].ID)
	require.Equal(t, model.EventLoanCreated, recorded[0].Type)
	require.Equal(t, `Anna Petrova borrowed "Go"`, recorded[0].Message)
	require.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), recorded[0].OccurredAt)
	// a failed write stays unmarked and is redelivered
	require.Equal(t, []int64{1, 2}, sess.marked)
}
