package hub

import (
	"github.com/Astemirdum/library-catalog/library/internal/model"
)

type EventType string

const (
	UpdateBookStats EventType = "UpdateBookStats"
	NewReview       EventType = "NewReview"
	ReviewDeleted   EventType = "ReviewDeleted"
	ViewerJoined    EventType = "ViewerJoined"
	ViewerLeft      EventType = "ViewerLeft"
	ReviewError     EventType = "ReviewError"
)

// ReviewDateLayout renders review dates as dd/MM/yyyy HH:mm.
const ReviewDateLayout = "02/01/2006 15:04"

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type StatsPayload struct {
	BookID        string  `json:"bookId"`
	Likes         int     `json:"likes"`
	Dislikes      int     `json:"dislikes"`
	TotalReviews  int     `json:"totalReviews"`
	AverageRating float64 `json:"averageRating"`
}

type ReviewPayload struct {
	ReviewID   string `json:"reviewId"`
	MemberName string `json:"memberName"`
	IsLike     bool   `json:"isLike"`
	Comment    string `json:"comment"`
	Rating     *int   `json:"rating"`
	ReviewDate string `json:"reviewDate"`
}

type ReviewDeletedPayload struct {
	ReviewID string `json:"reviewId"`
}

type ViewerPayload struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func StatsEvent(bookID string, s model.BookStats) Event {
	return Event{Type: UpdateBookStats, Data: StatsPayload{
		BookID:        bookID,
		Likes:         s.LikesCount,
		Dislikes:      s.DislikesCount,
		TotalReviews:  s.TotalReviews,
		AverageRating: s.AverageRating,
	}}
}

func NewReviewEvent(r model.ReviewView) Event {
	p := ReviewPayload{
		ReviewID:   r.ID.String(),
		MemberName: r.MemberName,
		IsLike:     r.IsLike,
		Rating:     r.Rating,
		ReviewDate: r.ReviewDate.Format(ReviewDateLayout),
	}
	if r.Comment != nil {
		p.Comment = *r.Comment
	}
	return Event{Type: NewReview, Data: p}
}

func ReviewDeletedEvent(reviewID string) Event {
	return Event{Type: ReviewDeleted, Data: ReviewDeletedPayload{ReviewID: reviewID}}
}

func ViewerEvent(t EventType, userID, connectionID string) Event {
	return Event{Type: t, Data: ViewerPayload{UserID: userID, ConnectionID: connectionID}}
}

func ErrorEvent(msg string) Event {
	return Event{Type: ReviewError, Data: ErrorPayload{Message: msg}}
}
