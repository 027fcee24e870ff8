package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/handler"
	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	"github.com/Astemirdum/library-catalog/pkg/session"

	service_mocks "github.com/Astemirdum/library-catalog/library/internal/handler/mocks"
)

const csrfKey = "0123456789abcdef0123456789abcdef"

var (
	bookID   = uuid.MustParse("f7cdc58f-2caf-4b15-9727-f89dcc629b27")
	memberID = uuid.MustParse("83575e12-7ce0-48ee-9931-51919ff3c9ee")

	librarian = auth.Identity{
		UserID: uuid.MustParse("0b5a7c8e-9d4f-4e52-8f0c-3a0b1c2d3e4f"),
		Email:  "admin@library.local",
		Name:   "Administrator",
		Role:   auth.RoleLibrarian,
	}
	member = auth.Identity{
		UserID:   uuid.MustParse("1c6b8d9f-ae50-4f63-9a1d-4b1c2d3e4f50"),
		Email:    "anna@mail.ru",
		Name:     "Anna Petrova",
		Role:     auth.RoleMember,
		MemberID: memberID,
	}
)

type fixture struct {
	svc      *service_mocks.MockLibraryService
	groups   *hub.Hub
	tokens   *auth.Tokens
	sessions *session.Manager
	router   *echo.Echo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := zap.NewNop()
	f := &fixture{
		svc:      service_mocks.NewMockLibraryService(ctrl),
		groups:   hub.New(log),
		tokens:   auth.NewTokens("test-secret", time.Hour),
		sessions: session.NewManagerWithStore(memstore.New(), session.Config{Lifetime: time.Hour}),
	}
	h := handler.New(f.svc, f.groups, f.sessions, f.tokens, handler.Config{CSRFKey: []byte(csrfKey)}, log)
	f.router = h.NewRouter()
	return f
}

func (f *fixture) bearer(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, _, err := f.tokens.Issue(id)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHandler_API(t *testing.T) {
	t.Parallel()
	type input struct {
		method string
		target string
		body   string
		caller *auth.Identity
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLibraryService)

	expiresAt := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
	}{
		{
			name: "login ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Login(gomock.Any(), model.LoginRequest{Email: "admin@library.local", Password: "admin123"}).
					Return(model.LoginResponse{
						Token:     "token",
						Email:     "admin@library.local",
						Name:      "Administrator",
						UserType:  "Librarian",
						Roles:     []string{"Librarian"},
						ExpiresAt: expiresAt,
					}, nil)
			},
			input: input{
				method: http.MethodPost,
				target: "/api/auth/login",
				body:   `{"email":"admin@library.local","password":"admin123"}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"token":"token","email":"admin@library.local","name":"Administrator","userType":"Librarian","roles":["Librarian"],"expiresAt":"2024-03-02T10:00:00Z"}`,
			},
		},
		{
			name: "err. login invalid credentials",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Login(gomock.Any(), model.LoginRequest{Email: "admin@library.local", Password: "wrong"}).
					Return(model.LoginResponse{}, errs.ErrInvalidCredentials)
			},
			input: input{
				method: http.MethodPost,
				target: "/api/auth/login",
				body:   `{"email":"admin@library.local","password":"wrong"}`,
			},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"invalid credentials"}`,
			},
		},
		{
			name:         "err. login malformed json",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input: input{
				method: http.MethodPost,
				target: "/api/auth/login",
				body:   `{"email":`,
			},
			response: response{expectedCode: http.StatusBadRequest},
		},
		{
			name: "get book",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					GetBook(gomock.Any(), auth.Identity{}, bookID).
					Return(model.BookDetail{
						Book:       model.Book{ID: bookID, Title: "Go", Author: "Pike", Available: true, CreatedAt: expiresAt},
						Categories: []model.Category{},
						Reviews:    []model.ReviewView{},
						Statistics: model.BookStats{TotalReviews: 2, AverageRating: 4.5, LikesCount: 2},
					}, nil)
			},
			input: input{method: http.MethodGet, target: "/api/books/" + bookID.String()},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"bookId":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Go","author":"Pike","isbn":null,"yearPublished":null,"available":true,"createdDate":"2024-03-02T10:00:00Z","categories":[],"reviews":[],"statistics":{"totalReviews":2,"averageRating":4.5,"likesCount":2,"dislikesCount":0,"totalBorrowings":0,"currentlyBorrowed":false}}`,
			},
		},
		{
			name: "err. get book not found",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().GetBook(gomock.Any(), auth.Identity{}, bookID).Return(model.BookDetail{}, errs.ErrNotFound)
			},
			input:    input{method: http.MethodGet, target: "/api/books/" + bookID.String()},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"not found"}`},
		},
		{
			name:         "err. get book bad id",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{method: http.MethodGet, target: "/api/books/42"},
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"invalid id"}`},
		},
		{
			name:         "err. list books bad availability",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{method: http.MethodGet, target: "/api/books?availability=lost"},
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"availability is invalid"}`},
		},
		{
			name: "search passes paging through",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					SearchBooks(gomock.Any(), model.BookSearch{Title: "go", PageSize: 500}).
					Return(model.BookPage{Books: []model.BookSummary{}, Page: 1, PageSize: 100}, nil)
			},
			input: input{method: http.MethodGet, target: "/api/books/search?title=go&pageSize=500"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"books":[],"totalCount":0,"page":1,"pageSize":100,"totalPages":0}`,
			},
		},
		{
			name:         "err. delete book anonymous",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{method: http.MethodDelete, target: "/api/books/" + bookID.String()},
			response:     response{expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"authentication required"}`},
		},
		{
			name:         "err. delete book as member",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{method: http.MethodDelete, target: "/api/books/" + bookID.String(), caller: &member},
			response:     response{expectedCode: http.StatusForbidden, expectedBody: `{"message":"access denied"}`},
		},
		{
			name: "delete book",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(gomock.Any(), librarian, bookID).Return(nil)
			},
			input:    input{method: http.MethodDelete, target: "/api/books/" + bookID.String(), caller: &librarian},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"message":"Book deleted successfully"}`},
		},
		{
			name: "err. delete book on loan",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(gomock.Any(), librarian, bookID).Return(errs.ErrBookOnLoan)
			},
			input:    input{method: http.MethodDelete, target: "/api/books/" + bookID.String(), caller: &librarian},
			response: response{expectedCode: http.StatusConflict, expectedBody: `{"message":"book is currently on loan"}`},
		},
		{
			name: "update book",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					UpdateBook(gomock.Any(), librarian, bookID, model.BookRequest{Title: "Go", Author: "Pike"}).
					Return(nil)
			},
			input: input{
				method: http.MethodPut,
				target: "/api/books/" + bookID.String(),
				body:   `{"title":"Go","author":"Pike"}`,
				caller: &librarian,
			},
			response: response{expectedCode: http.StatusNoContent},
		},
		{
			name:         "err. create book without title",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input: input{
				method: http.MethodPost,
				target: "/api/books",
				body:   `{"author":"Pike"}`,
				caller: &librarian,
			},
			response: response{expectedCode: http.StatusBadRequest},
		},
		{
			name: "err. create book duplicate isbn",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateBook(gomock.Any(), librarian, model.BookRequest{Title: "Go", Author: "Pike", ISBN: "9780134190440"}).
					Return(model.BookSummary{}, errs.ErrDuplicateISBN)
			},
			input: input{
				method: http.MethodPost,
				target: "/api/books",
				body:   `{"title":"Go","author":"Pike","isbn":"9780134190440"}`,
				caller: &librarian,
			},
			response: response{expectedCode: http.StatusConflict, expectedBody: `{"message":"a book with this ISBN already exists"}`},
		},
		{
			name: "err. loan blocked by overdue",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateLoan(gomock.Any(), librarian, model.LoanRequest{BookID: bookID, MemberID: memberID}).
					Return(model.Loan{}, &errs.OverdueError{Count: 2})
			},
			input: input{
				method: http.MethodPost,
				target: "/api/loans",
				body:   `{"bookId":"` + bookID.String() + `","memberId":"` + memberID.String() + `"}`,
				caller: &librarian,
			},
			response: response{expectedCode: http.StatusConflict, expectedBody: `{"message":"member has 2 overdue loan(s); new loans are blocked"}`},
		},
		{
			name: "err. loan due date in the past",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateLoan(gomock.Any(), librarian, gomock.Any()).
					Return(model.Loan{}, errs.ErrDueDateNotFuture)
			},
			input: input{
				method: http.MethodPost,
				target: "/api/loans",
				body:   `{"bookId":"` + bookID.String() + `","memberId":"` + memberID.String() + `","dueDate":"2020-01-01T00:00:00Z"}`,
				caller: &librarian,
			},
			response: response{expectedCode: http.StatusUnprocessableEntity, expectedBody: `{"message":"due date must be in the future"}`},
		},
		{
			name: "err. return twice",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ReturnLoan(gomock.Any(), librarian, bookID).Return(model.Loan{}, errs.ErrAlreadyReturned)
			},
			input:    input{method: http.MethodPost, target: "/api/loans/" + bookID.String() + "/return", caller: &librarian},
			response: response{expectedCode: http.StatusConflict, expectedBody: `{"message":"loan already returned"}`},
		},
		{
			name: "err. review without borrowing",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					SubmitReview(gomock.Any(), member, model.ReviewRequest{BookID: bookID, IsLike: true}).
					Return(model.ReviewResult{}, errs.ErrNotBorrowed)
			},
			input: input{
				method: http.MethodPost,
				target: "/api/books/" + bookID.String() + "/reviews",
				body:   `{"isLike":true}`,
				caller: &member,
			},
			response: response{expectedCode: http.StatusUnprocessableEntity, expectedBody: `{"message":"you can only review books you have borrowed"}`},
		},
		{
			name:         "err. librarian may not review",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input: input{
				method: http.MethodPost,
				target: "/api/books/" + bookID.String() + "/reviews",
				body:   `{"isLike":true}`,
				caller: &librarian,
			},
			response: response{expectedCode: http.StatusForbidden, expectedBody: `{"message":"access denied"}`},
		},
		{
			name: "delete review",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteReview(gomock.Any(), member, bookID).Return(bookID, nil)
			},
			input:    input{method: http.MethodDelete, target: "/api/reviews/" + bookID.String(), caller: &member},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"message":"Review deleted successfully"}`},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().ListBooks(gomock.Any(), model.BookFilter{}).Return(nil, errors.New("db internal"))
			},
			input:    input{method: http.MethodGet, target: "/api/books"},
			response: response{expectedCode: http.StatusInternalServerError, expectedBody: `{"message":"Internal Server Error"}`},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			var body *strings.Reader
			if tt.input.body != "" {
				body = strings.NewReader(tt.input.body)
			} else {
				body = strings.NewReader("")
			}
			r := httptest.NewRequest(tt.input.method, tt.input.target, body)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.input.caller != nil {
				r.Header.Set(echo.HeaderAuthorization, f.bearer(t, *tt.input.caller))
			}
			w := httptest.NewRecorder()

			tt.mockBehavior(f.svc)
			f.router.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{name: "ok", wantCode: http.StatusOK, wantBody: "OK"},
		{name: "db down", pingErr: errors.New("conn refused"), wantCode: http.StatusServiceUnavailable, wantBody: "DB UNAVAILABLE"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.svc.EXPECT().Ping(gomock.Any()).Return(tt.pingErr)

			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage/health", http.NoBody))

			require.Equal(t, tt.wantCode, w.Code)
			require.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}
