package model

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanBorrowed LoanStatus = "Borrowed"
	LoanReturned LoanStatus = "Returned"
)

type Loan struct {
	ID                uuid.UUID  `json:"borrowingId" db:"id"`
	BookID            uuid.UUID  `json:"bookId" db:"book_id"`
	MemberID          uuid.UUID  `json:"memberId" db:"member_id"`
	BorrowDate        time.Time  `json:"borrowDate" db:"borrow_date"`
	DueDate           time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate        *time.Time `json:"returnDate" db:"return_date"`
	Status            LoanStatus `json:"status" db:"status"`
	OverdueNotifiedAt *time.Time `json:"-" db:"overdue_notified_at"`
}

// IsOverdue reports a borrowed loan past its due date. Overdue is never stored.
func (l Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanBorrowed && l.DueDate.Before(now)
}

func (l Loan) DaysOverdue(now time.Time) int {
	if !l.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(l.DueDate).Hours() / 24)
}

type LoanView struct {
	Loan
	BookTitle   string `json:"bookTitle" db:"book_title"`
	BookAuthor  string `json:"bookAuthor" db:"book_author"`
	MemberName  string `json:"memberName" db:"member_name"`
	MemberEmail string `json:"memberEmail" db:"member_email"`
}

type LoanFilter string

const (
	LoanFilterAll      LoanFilter = "all"
	LoanFilterActive   LoanFilter = "active"
	LoanFilterOverdue  LoanFilter = "overdue"
	LoanFilterReturned LoanFilter = "returned"
)

func ParseLoanFilter(s string) LoanFilter {
	switch f := LoanFilter(s); f {
	case LoanFilterActive, LoanFilterOverdue, LoanFilterReturned:
		return f
	}
	return LoanFilterAll
}

type LoanRequest struct {
	BookID   uuid.UUID  `json:"bookId" validate:"required"`
	MemberID uuid.UUID  `json:"memberId" validate:"required"`
	DueDate  *time.Time `json:"dueDate"`
}

// LoanQuery narrows a loan listing. Zero ids and limit mean no restriction.
type LoanQuery struct {
	Filter         LoanFilter
	MemberID       uuid.UUID
	BookID         uuid.UUID
	Limit          uint64
	Now            time.Time
	OldestDueFirst bool
}
