package handler

import (
	"context"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

type recordEvent func(ctx context.Context, e model.Event) error

// Consumer writes domain events from the library topic into the activity log.
type Consumer struct {
	recordHandler recordEvent
	log           *zap.Logger
}

func NewConsumer(record recordEvent, log *zap.Logger) *Consumer {
	return &Consumer{
		recordHandler: record,
		log:           log.Named("consumer"),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event model.Event
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("decode event", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.recordHandler(session.Context(), event); err != nil {
				consumer.log.Error("consumer.recordHandler", zap.Error(err), zap.String("event", event.ID.String()))
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("type", string(event.Type)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
