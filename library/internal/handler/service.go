package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/service"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	Authenticate(ctx context.Context, email, password string) (auth.Identity, error)

	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.BookSummary, error)
	SearchBooks(ctx context.Context, search model.BookSearch) (model.BookPage, error)
	GetBook(ctx context.Context, id auth.Identity, bookID uuid.UUID) (model.BookDetail, error)
	BookStats(ctx context.Context, bookID uuid.UUID) (model.BookStats, error)
	CreateBook(ctx context.Context, id auth.Identity, req model.BookRequest) (model.BookSummary, error)
	UpdateBook(ctx context.Context, id auth.Identity, bookID uuid.UUID, req model.BookRequest) error
	DeleteBook(ctx context.Context, id auth.Identity, bookID uuid.UUID) error
	ToggleAvailability(ctx context.Context, id auth.Identity, bookID uuid.UUID) (bool, error)

	ListCategories(ctx context.Context) ([]model.CategorySummary, error)
	GetCategory(ctx context.Context, id uuid.UUID) (model.CategoryDetail, error)
	CreateCategory(ctx context.Context, id auth.Identity, req model.CategoryRequest) (model.Category, error)
	UpdateCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID, req model.CategoryRequest) error
	DeleteCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID) error

	ListMembers(ctx context.Context, id auth.Identity, search string) ([]model.MemberSummary, error)
	GetMember(ctx context.Context, id auth.Identity, memberID uuid.UUID) (model.MemberDetail, error)
	CreateMember(ctx context.Context, id auth.Identity, req model.MemberRequest) (model.Member, error)
	UpdateMember(ctx context.Context, id auth.Identity, memberID uuid.UUID, req model.MemberRequest) error
	ToggleMember(ctx context.Context, id auth.Identity, memberID uuid.UUID) (bool, error)
	DeleteMember(ctx context.Context, id auth.Identity, memberID uuid.UUID) error

	CreateLoan(ctx context.Context, id auth.Identity, req model.LoanRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, id auth.Identity, loanID uuid.UUID) (model.Loan, error)
	ListLoans(ctx context.Context, id auth.Identity, filter model.LoanFilter) ([]model.LoanView, error)
	GetLoan(ctx context.Context, id auth.Identity, loanID uuid.UUID) (model.LoanView, error)
	MemberLoans(ctx context.Context, id auth.Identity, memberID uuid.UUID) ([]model.LoanView, error)
	BookLoans(ctx context.Context, id auth.Identity, bookID uuid.UUID) ([]model.LoanView, error)

	SubmitReview(ctx context.Context, id auth.Identity, req model.ReviewRequest) (model.ReviewResult, error)
	GetReview(ctx context.Context, id auth.Identity, reviewID uuid.UUID) (model.ReviewView, error)
	EditReview(ctx context.Context, id auth.Identity, reviewID uuid.UUID, req model.ReviewRequest) (model.ReviewResult, error)
	DeleteReview(ctx context.Context, id auth.Identity, reviewID uuid.UUID) (uuid.UUID, error)

	AdminDashboard(ctx context.Context, id auth.Identity) (model.AdminDashboard, error)
	MemberDashboard(ctx context.Context, id auth.Identity, tab model.MemberTab) (model.MemberDashboard, error)

	RecordEvent(ctx context.Context, e model.Event) error
}

var _ LibraryService = (*service.Service)(nil)
