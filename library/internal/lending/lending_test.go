package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
)

func TestDecideLoan(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ok := LoanState{
		BookFound:     true,
		BookAvailable: true,
		MemberFound:   true,
		MemberActive:  true,
		DueDate:       now.Add(14 * 24 * time.Hour),
		Now:           now,
	}

	tests := []struct {
		name    string
		mutate  func(s *LoanState)
		wantErr error
		wantMsg string
	}{
		{name: "ok", mutate: func(s *LoanState) {}},
		{name: "book missing", mutate: func(s *LoanState) { s.BookFound = false }, wantErr: errs.ErrBookUnavailable},
		{name: "book unavailable", mutate: func(s *LoanState) { s.BookAvailable = false }, wantErr: errs.ErrBookUnavailable},
		{name: "member missing", mutate: func(s *LoanState) { s.MemberFound = false }, wantErr: errs.ErrMemberInactive},
		{name: "member inactive", mutate: func(s *LoanState) { s.MemberActive = false }, wantErr: errs.ErrMemberInactive},
		{
			name:    "overdue loans",
			mutate:  func(s *LoanState) { s.OverdueCount = 2 },
			wantErr: errs.ErrOverdue,
			wantMsg: "member has 2 overdue loan(s); new loans are blocked",
		},
		{name: "due date now", mutate: func(s *LoanState) { s.DueDate = now }, wantErr: errs.ErrDueDateNotFuture},
		{name: "due date past", mutate: func(s *LoanState) { s.DueDate = now.Add(-time.Hour) }, wantErr: errs.ErrDueDateNotFuture},
		{
			name: "book checked before member",
			mutate: func(s *LoanState) {
				s.BookAvailable = false
				s.MemberActive = false
				s.OverdueCount = 1
			},
			wantErr: errs.ErrBookUnavailable,
		},
		{
			name: "overdue checked before due date",
			mutate: func(s *LoanState) {
				s.OverdueCount = 1
				s.DueDate = now.Add(-time.Hour)
			},
			wantErr: errs.ErrOverdue,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := ok
			tt.mutate(&s)
			err := DecideLoan(s)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				require.EqualError(t, err, tt.wantMsg)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, now.Add(14*24*time.Hour), DueDate(nil, now, 14*24*time.Hour))
	req := now.Add(48 * time.Hour)
	require.Equal(t, req, DueDate(&req, now, 14*24*time.Hour))
	require.Equal(t, now.Add(time.Hour), DueDate(&time.Time{}, now, time.Hour))
}

func TestDecideReturn(t *testing.T) {
	t.Parallel()
	require.NoError(t, DecideReturn(model.Loan{Status: model.LoanBorrowed}))
	require.ErrorIs(t, DecideReturn(model.Loan{Status: model.LoanReturned}), errs.ErrAlreadyReturned)
}

func TestDecideToggle(t *testing.T) {
	t.Parallel()
	require.NoError(t, DecideToggle(false))
	require.ErrorIs(t, DecideToggle(true), errs.ErrBookOnLoan)
}
