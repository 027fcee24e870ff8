package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	repo_mocks "github.com/Astemirdum/library-catalog/library/internal/repository/mocks"
	service_mocks "github.com/Astemirdum/library-catalog/library/internal/service/mocks"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type deps struct {
	repo   *repo_mocks.MockRepository
	hub    *service_mocks.MockPublisher
	events *service_mocks.MockEventSink
	tokens *service_mocks.MockTokenIssuer
}

func newTestService(t *testing.T, opts Options) (*Service, deps) {
	t.Helper()
	c := gomock.NewController(t)
	d := deps{
		repo:   repo_mocks.NewMockRepository(c),
		hub:    service_mocks.NewMockPublisher(c),
		events: service_mocks.NewMockEventSink(c),
		tokens: service_mocks.NewMockTokenIssuer(c),
	}
	s := NewService(d.repo, d.hub, d.events, d.tokens, opts, zap.NewExample().Named("test"))
	s.now = func() time.Time { return testNow }
	return s, d
}

// expectTx runs the transaction body against the same mock.
func (d deps) expectTx(times int) {
	d.repo.EXPECT().
		InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx repository.Repository) error) error {
			return fn(d.repo)
		}).
		Times(times)
}

var (
	librarian = auth.Identity{
		UserID: uuid.MustParse("7f0ab1b0-42a4-4c5e-9d0a-0d1e5b4d7c01"),
		Email:  "admin@library.local",
		Name:   "Administrator",
		Role:   auth.RoleLibrarian,
	}
	memberID = uuid.MustParse("2b9b1c8e-52f6-4bb0-8f0e-6b9d2a7f3c11")
	member   = auth.Identity{
		UserID:   uuid.MustParse("c1d2e3f4-1111-4222-8333-944455556666"),
		Email:    "anna@mail.ru",
		Name:     "Anna Petrova",
		Role:     auth.RoleMember,
		MemberID: memberID,
	}
	bookID = uuid.MustParse("f7cdc58f-2caf-4b15-9727-f89dcc629b27")
)

func intPtr(v int) *int { return &v }

func reviewView(member uuid.UUID, like bool, rating *int) model.ReviewView {
	return model.ReviewView{Review: model.Review{
		ID:       uuid.New(),
		BookID:   bookID,
		MemberID: member,
		IsLike:   like,
		Rating:   rating,
	}}
}
