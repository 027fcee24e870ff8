package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLoanCreated     EventType = "loan.created"
	EventLoanReturned    EventType = "loan.returned"
	EventLoanOverdue     EventType = "loan.overdue"
	EventReviewSubmitted EventType = "review.submitted"
	EventReviewDeleted   EventType = "review.deleted"
	EventBookDeleted     EventType = "book.deleted"
)

// Event is a domain fact published after a committed change.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	BookID     *uuid.UUID `json:"bookId,omitempty"`
	MemberID   *uuid.UUID `json:"memberId,omitempty"`
	LoanID     *uuid.UUID `json:"loanId,omitempty"`
	ReviewID   *uuid.UUID `json:"reviewId,omitempty"`
	Message    string     `json:"message"`
	OccurredAt time.Time  `json:"occurredAt"`
}

type ActivityEntry struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Kind       EventType  `json:"kind" db:"kind"`
	BookID     *uuid.UUID `json:"bookId,omitempty" db:"book_id"`
	MemberID   *uuid.UUID `json:"memberId,omitempty" db:"member_id"`
	LoanID     *uuid.UUID `json:"loanId,omitempty" db:"loan_id"`
	ReviewID   *uuid.UUID `json:"reviewId,omitempty" db:"review_id"`
	Message    string     `json:"message" db:"message"`
	OccurredAt time.Time  `json:"occurredAt" db:"occurred_at"`
}

// Entry is the activity log row recording the event.
func (e Event) Entry() ActivityEntry {
	return ActivityEntry{
		ID:         e.ID,
		Kind:       e.Type,
		BookID:     e.BookID,
		MemberID:   e.MemberID,
		LoanID:     e.LoanID,
		ReviewID:   e.ReviewID,
		Message:    e.Message,
		OccurredAt: e.OccurredAt,
	}
}

func Ref(id uuid.UUID) *uuid.UUID {
	return &id
}
