package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID `json:"reviewId" db:"id"`
	BookID     uuid.UUID `json:"bookId" db:"book_id"`
	MemberID   uuid.UUID `json:"memberId" db:"member_id"`
	IsLike     bool      `json:"isLike" db:"is_like"`
	Rating     *int      `json:"rating" db:"rating"`
	Comment    *string   `json:"comment" db:"comment"`
	ReviewDate time.Time `json:"reviewDate" db:"review_date"`
}

type ReviewView struct {
	Review
	MemberName string `json:"memberName" db:"member_name"`
	BookTitle  string `json:"bookTitle" db:"book_title"`
}

type ReviewRequest struct {
	BookID  uuid.UUID `json:"bookId" form:"bookId"`
	IsLike  bool      `json:"isLike" form:"isLike"`
	Comment string    `json:"comment" form:"comment" validate:"max=1000"`
	Rating  *int      `json:"rating" form:"rating" validate:"omitempty,min=1,max=5"`
}

// ReviewPolicy decides what a second review of the same book by the same member does.
type ReviewPolicy string

const (
	ReviewPolicyReject ReviewPolicy = "reject"
	ReviewPolicyUpsert ReviewPolicy = "upsert"
)

// ReviewResult is a stored review together with the recomputed book statistics.
type ReviewResult struct {
	Review ReviewView `json:"review"`
	Stats  BookStats  `json:"statistics"`
}
