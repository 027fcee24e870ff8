package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

// Publisher pushes live events to the viewers of one book.
type Publisher interface {
	Publish(ctx context.Context, bookID string, e hub.Event) error
}

// EventSink receives domain events after their transaction committed.
type EventSink interface {
	Emit(ctx context.Context, e model.Event) error
}

type TokenIssuer interface {
	Issue(id auth.Identity) (string, time.Time, error)
}

type Options struct {
	LoanPeriod   time.Duration
	ReviewPolicy model.ReviewPolicy
}

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	hub    Publisher
	events EventSink
	tokens TokenIssuer
	opts   Options
	now    func() time.Time
}

func NewService(repo repository.Repository, hub Publisher, events EventSink, tokens TokenIssuer, opts Options, log *zap.Logger) *Service {
	if opts.LoanPeriod <= 0 {
		opts.LoanPeriod = 14 * 24 * time.Hour
	}
	if opts.ReviewPolicy == "" {
		opts.ReviewPolicy = model.ReviewPolicyReject
	}
	return &Service{
		log:    log.Named("service"),
		repo:   repo,
		hub:    hub,
		events: events,
		tokens: tokens,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// emit hands the event to the sink. Failures are logged only.
func (s *Service) emit(ctx context.Context, e model.Event) {
	if s.events == nil {
		return
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.events.Emit(ctx, e); err != nil {
		s.log.Warn("emit event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}

// broadcast pushes events to the book group. Failures never reach the caller.
func (s *Service) broadcast(ctx context.Context, bookID uuid.UUID, events ...hub.Event) {
	if s.hub == nil {
		return
	}
	for _, e := range events {
		if err := s.hub.Publish(ctx, bookID.String(), e); err != nil {
			s.log.Warn("broadcast", zap.String("book", bookID.String()), zap.String("event", string(e.Type)), zap.Error(err))
		}
	}
}
