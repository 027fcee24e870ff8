package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func TestService_Login(t *testing.T) {
	t.Parallel()
	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)
	expires := testNow.Add(24 * time.Hour)
	mid := memberID

	tests := []struct {
		name         string
		req          model.LoginRequest
		mockBehavior func(d deps)
		want         model.LoginResponse
		wantErr      error
	}{
		{
			name: "librarian",
			req:  model.LoginRequest{Email: "admin@library.local", Password: "password1"},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@library.local").Return(model.User{
					ID:           librarian.UserID,
					Email:        "admin@library.local",
					PasswordHash: hash,
					Name:         "root",
					Role:         "Librarian",
				}, nil)
				d.tokens.EXPECT().Issue(librarian).Return("jwt", expires, nil)
			},
			want: model.LoginResponse{
				Token:     "jwt",
				Email:     "admin@library.local",
				Name:      "Administrator",
				UserType:  "Librarian",
				Roles:     []string{"Librarian"},
				ExpiresAt: expires,
			},
		},
		{
			name: "member",
			req:  model.LoginRequest{Email: "anna@mail.ru", Password: "password1"},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetUserByEmail(gomock.Any(), "anna@mail.ru").Return(model.User{
					ID:           member.UserID,
					Email:        "anna@mail.ru",
					PasswordHash: hash,
					Name:         "Anna Petrova",
					Role:         "Member",
					MemberID:     &mid,
				}, nil)
				d.tokens.EXPECT().Issue(member).Return("jwt", expires, nil)
			},
			want: model.LoginResponse{
				Token:     "jwt",
				Email:     "anna@mail.ru",
				Name:      "Anna Petrova",
				UserType:  "Member",
				Roles:     []string{"Member"},
				ExpiresAt: expires,
			},
		},
		{
			name: "wrong password",
			req:  model.LoginRequest{Email: "anna@mail.ru", Password: "nope"},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetUserByEmail(gomock.Any(), "anna@mail.ru").Return(model.User{PasswordHash: hash, Role: "Member"}, nil)
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			req:  model.LoginRequest{Email: "ghost@mail.ru", Password: "password1"},
			mockBehavior: func(d deps) {
				d.repo.EXPECT().GetUserByEmail(gomock.Any(), "ghost@mail.ru").Return(model.User{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrInvalidCredentials,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, d := newTestService(t, Options{})
			tt.mockBehavior(d)

			got, err := s.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.EqualError(t, err, "invalid credentials")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestService_ScanOverdue(t *testing.T) {
	t.Parallel()
	s, d := newTestService(t, Options{})
	late := model.LoanView{
		Loan: model.Loan{
			ID:       bookID,
			BookID:   bookID,
			MemberID: memberID,
			DueDate:  testNow.Add(-72 * time.Hour),
			Status:   model.LoanBorrowed,
		},
		BookTitle:  "Dune",
		MemberName: "Anna Petrova",
	}
	d.repo.EXPECT().PendingOverdueNotices(gomock.Any(), testNow, uint64(overdueScanBatch)).Return([]model.LoanView{late}, nil)
	d.repo.EXPECT().MarkOverdueNotified(gomock.Any(), late.ID, testNow).Return(nil)
	d.events.EXPECT().Emit(gomock.Any(), gomock.Any()).
		Do(func(_ any, e model.Event) {
			require.Equal(t, model.EventLoanOverdue, e.Type)
			require.Equal(t, `"Dune" borrowed by Anna Petrova is 3 day(s) overdue`, e.Message)
		}).Return(nil)

	n, err := s.ScanOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
