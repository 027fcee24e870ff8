package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func TestService_CreateLoan(t *testing.T) {
	t.Parallel()
	book := model.Book{ID: bookID, Title: "Dune", Author: "Frank Herbert", Available: true}
	active := model.Member{ID: memberID, Name: "Anna Petrova", IsActive: true}
	past := testNow.Add(-time.Hour)

	type mockBehavior func(d deps)
	tests := []struct {
		name         string
		id           auth.Identity
		req          model.LoanRequest
		mockBehavior mockBehavior
		wantErr      error
		wantMsg      string
	}{
		{
			name: "ok",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(active, nil)
				d.repo.EXPECT().CountOverdueLoans(gomock.Any(), memberID, testNow).Return(0, nil)
				d.repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).
					Do(func(_ any, l model.Loan) {
						require.Equal(t, model.LoanBorrowed, l.Status)
						require.Equal(t, testNow.Add(14*24*time.Hour), l.DueDate)
					}).Return(nil)
				d.repo.EXPECT().SetBookAvailable(gomock.Any(), bookID, false).Return(nil)
				d.events.EXPECT().Emit(gomock.Any(), gomock.Any()).
					Do(func(_ any, e model.Event) {
						require.Equal(t, model.EventLoanCreated, e.Type)
					}).Return(nil)
			},
		},
		{
			name: "book unavailable",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				b := book
				b.Available = false
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(b, nil)
			},
			wantErr: errs.ErrBookUnavailable,
			wantMsg: "book is not available for loan",
		},
		{
			name: "book not found",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrBookUnavailable,
		},
		{
			name: "member inactive",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(book, nil)
				m := active
				m.IsActive = false
				d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(m, nil)
			},
			wantErr: errs.ErrMemberInactive,
			wantMsg: "member not found or inactive",
		},
		{
			name: "overdue loans",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(active, nil)
				d.repo.EXPECT().CountOverdueLoans(gomock.Any(), memberID, testNow).Return(2, nil)
			},
			wantErr: errs.ErrOverdue,
			wantMsg: "member has 2 overdue loan(s); new loans are blocked",
		},
		{
			name: "due date in the past",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID, DueDate: &past},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(active, nil)
				d.repo.EXPECT().CountOverdueLoans(gomock.Any(), memberID, testNow).Return(0, nil)
			},
			wantErr: errs.ErrDueDateNotFuture,
		},
		{
			name: "lost race on open loan index",
			id:   librarian,
			req:  model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(book, nil)
				d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(active, nil)
				d.repo.EXPECT().CountOverdueLoans(gomock.Any(), memberID, testNow).Return(0, nil)
				d.repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).Return(errs.ErrBookUnavailable)
			},
			wantErr: errs.ErrBookUnavailable,
		},
		{
			name:         "member may not lend",
			id:           member,
			req:          model.LoanRequest{BookID: bookID, MemberID: memberID},
			mockBehavior: func(d deps) {},
			wantErr:      auth.ErrForbidden,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, d := newTestService(t, Options{})
			tt.mockBehavior(d)

			loan, err := s.CreateLoan(context.Background(), tt.id, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					require.EqualError(t, err, tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, bookID, loan.BookID)
			require.Equal(t, memberID, loan.MemberID)
		})
	}
}

func TestService_CreateLoan_RetriesSerializationFailure(t *testing.T) {
	t.Parallel()
	s, d := newTestService(t, Options{})
	book := model.Book{ID: bookID, Available: true}
	active := model.Member{ID: memberID, IsActive: true}

	d.expectTx(2)
	d.repo.EXPECT().LockBook(gomock.Any(), bookID).Return(book, nil).Times(2)
	d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(active, nil).Times(2)
	d.repo.EXPECT().CountOverdueLoans(gomock.Any(), memberID, testNow).Return(0, nil).Times(2)
	gomock.InOrder(
		d.repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).
			Return(&pgconn.PgError{Code: pgerrcode.SerializationFailure}),
		d.repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).Return(nil),
	)
	d.repo.EXPECT().SetBookAvailable(gomock.Any(), bookID, false).Return(nil)
	d.events.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.CreateLoan(context.Background(), librarian, model.LoanRequest{BookID: bookID, MemberID: memberID})
	require.NoError(t, err)
}

func TestService_ReturnLoan(t *testing.T) {
	t.Parallel()
	loanID := uuid.New()
	borrowed := model.Loan{ID: loanID, BookID: bookID, MemberID: memberID, Status: model.LoanBorrowed}

	tests := []struct {
		name         string
		mockBehavior func(d deps)
		wantErr      error
	}{
		{
			name: "ok",
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockLoan(gomock.Any(), loanID).Return(borrowed, nil)
				d.repo.EXPECT().MarkReturned(gomock.Any(), loanID, testNow).Return(nil)
				d.repo.EXPECT().SetBookAvailable(gomock.Any(), bookID, true).Return(nil)
				d.events.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "already returned",
			mockBehavior: func(d deps) {
				d.expectTx(1)
				l := borrowed
				l.Status = model.LoanReturned
				d.repo.EXPECT().LockLoan(gomock.Any(), loanID).Return(l, nil)
			},
			wantErr: errs.ErrAlreadyReturned,
		},
		{
			name: "unknown loan",
			mockBehavior: func(d deps) {
				d.expectTx(1)
				d.repo.EXPECT().LockLoan(gomock.Any(), loanID).Return(model.Loan{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, d := newTestService(t, Options{})
			tt.mockBehavior(d)

			loan, err := s.ReturnLoan(context.Background(), librarian, loanID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.LoanReturned, loan.Status)
			require.Equal(t, testNow, *loan.ReturnDate)
		})
	}
}

// The single copy lifecycle: lend, refuse a second borrower, return, refuse a second return.
func TestService_LoanLifecycle(t *testing.T) {
	t.Parallel()
	s, d := newTestService(t, Options{})
	other := uuid.New()
	book := model.Book{ID: bookID, Title: "Dune", Available: true}
	var loan model.Loan

	d.expectTx(4)
	d.events.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	d.repo.EXPECT().LockBook(gomock.Any(), bookID).
		DoAndReturn(func(_ any, _ uuid.UUID) (model.Book, error) { return book, nil }).
		Times(2)
	d.repo.EXPECT().GetMember(gomock.Any(), memberID).Return(model.Member{ID: memberID, IsActive: true}, nil)
	d.repo.EXPECT().CountOverdueLoans(gomock.Any(), memberID, testNow).Return(0, nil)
	d.repo.EXPECT().CreateLoan(gomock.Any(), gomock.Any()).
		Do(func(_ any, l model.Loan) { loan = l }).Return(nil)
	d.repo.EXPECT().SetBookAvailable(gomock.Any(), bookID, gomock.Any()).
		Do(func(_ any, _ uuid.UUID, available bool) { book.Available = available }).
		Return(nil).Times(2)
	d.repo.EXPECT().LockLoan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, _ uuid.UUID) (model.Loan, error) { return loan, nil }).
		Times(2)
	d.repo.EXPECT().MarkReturned(gomock.Any(), gomock.Any(), testNow).
		Do(func(_ any, _ uuid.UUID, at time.Time) {
			loan.Status = model.LoanReturned
			loan.ReturnDate = &at
		}).Return(nil)

	_, err := s.CreateLoan(context.Background(), librarian, model.LoanRequest{BookID: bookID, MemberID: memberID})
	require.NoError(t, err)
	require.False(t, book.Available)

	_, err = s.CreateLoan(context.Background(), librarian, model.LoanRequest{BookID: bookID, MemberID: other})
	require.EqualError(t, err, "book is not available for loan")

	_, err = s.ReturnLoan(context.Background(), librarian, loan.ID)
	require.NoError(t, err)
	require.True(t, book.Available)

	_, err = s.ReturnLoan(context.Background(), librarian, loan.ID)
	require.True(t, errors.Is(err, errs.ErrAlreadyReturned))
}

func TestService_MemberLoans(t *testing.T) {
	t.Parallel()
	s, d := newTestService(t, Options{})

	_, err := s.MemberLoans(context.Background(), member, uuid.New())
	require.ErrorIs(t, err, auth.ErrForbidden)

	d.repo.EXPECT().
		ListLoans(gomock.Any(), model.LoanQuery{Filter: model.LoanFilterAll, MemberID: memberID, Now: testNow}).
		Return([]model.LoanView{}, nil)
	loans, err := s.MemberLoans(context.Background(), member, memberID)
	require.NoError(t, err)
	require.Empty(t, loans)
}
