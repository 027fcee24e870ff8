// Package lending holds the pure decision rules of the borrowing lifecycle.
package lending

import (
	"time"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
)

// LoanState is everything a new loan decision looks at, projected from the store.
type LoanState struct {
	BookFound     bool
	BookAvailable bool
	MemberFound   bool
	MemberActive  bool
	OverdueCount  int
	DueDate       time.Time
	Now           time.Time
}

// DecideLoan checks the loan preconditions in order and returns the first one that fails.
func DecideLoan(s LoanState) error {
	if !s.BookFound || !s.BookAvailable {
		return errs.ErrBookUnavailable
	}
	if !s.MemberFound || !s.MemberActive {
		return errs.ErrMemberInactive
	}
	if s.OverdueCount > 0 {
		return &errs.OverdueError{Count: s.OverdueCount}
	}
	if !s.DueDate.After(s.Now) {
		return errs.ErrDueDateNotFuture
	}
	return nil
}

// DueDate picks the requested due date or the default loan period from now.
func DueDate(requested *time.Time, now time.Time, period time.Duration) time.Time {
	if requested != nil && !requested.IsZero() {
		return *requested
	}
	return now.Add(period)
}

// DecideReturn allows returning only a loan that is still borrowed.
func DecideReturn(loan model.Loan) error {
	if loan.Status == model.LoanReturned {
		return errs.ErrAlreadyReturned
	}
	return nil
}

// DecideToggle refuses to flip availability while the book is out on loan.
func DecideToggle(hasActiveLoan bool) error {
	if hasActiveLoan {
		return errs.ErrBookOnLoan
	}
	return nil
}
