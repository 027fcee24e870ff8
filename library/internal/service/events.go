package service

import (
	"context"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
)

// RecordEvent stores an event in the activity log. Replays of the same event are ignored.
func (s *Service) RecordEvent(ctx context.Context, e model.Event) error {
	return s.repo.AddActivity(ctx, e.Entry())
}

type activitySink struct {
	repo repository.Repository
}

// NewActivitySink writes events straight to the activity log.
func NewActivitySink(repo repository.Repository) EventSink {
	return &activitySink{repo: repo}
}

func (a *activitySink) Emit(ctx context.Context, e model.Event) error {
	return a.repo.AddActivity(ctx, e.Entry())
}

type kafkaSink struct {
	q     kafka.Enqueuer
	topic string
}

// NewKafkaSink publishes events to the library topic keyed by book.
func NewKafkaSink(q kafka.Enqueuer) EventSink {
	return &kafkaSink{q: q, topic: kafka.LibraryTopic}
}

func (k *kafkaSink) Emit(_ context.Context, e model.Event) error {
	key := ""
	if e.BookID != nil {
		key = e.BookID.String()
	}
	return k.q.Enqueue(k.topic, key, e)
}
