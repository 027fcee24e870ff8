package model

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID            uuid.UUID `json:"bookId" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	ISBN          *string   `json:"isbn" db:"isbn"`
	YearPublished *int      `json:"yearPublished" db:"year_published"`
	Available     bool      `json:"available" db:"available"`
	CreatedAt     time.Time `json:"createdDate" db:"created_at"`
}

// BookSummary is a catalog row with its review aggregates.
type BookSummary struct {
	Book
	Categories    []string `json:"categories" db:"categories"`
	ReviewCount   int      `json:"reviewCount" db:"review_count"`
	AverageRating float64  `json:"averageRating" db:"average_rating"`
	LikesCount    int      `json:"likesCount" db:"likes_count"`
	DislikesCount int      `json:"dislikesCount" db:"dislikes_count"`
}

type BookStats struct {
	TotalReviews      int     `json:"totalReviews"`
	AverageRating     float64 `json:"averageRating"`
	LikesCount        int     `json:"likesCount"`
	DislikesCount     int     `json:"dislikesCount"`
	TotalBorrowings   int     `json:"totalBorrowings"`
	CurrentlyBorrowed bool    `json:"currentlyBorrowed"`
}

type BookDetail struct {
	Book
	Categories []Category   `json:"categories"`
	Reviews    []ReviewView `json:"reviews"`
	Statistics BookStats    `json:"statistics"`
	Viewer     *BookViewer  `json:"viewer,omitempty"`
}

// BookViewer is what the signed-in member has done with a book.
type BookViewer struct {
	HasBorrowed bool        `json:"hasBorrowed"`
	HasReviewed bool        `json:"hasReviewed"`
	Review      *ReviewView `json:"review,omitempty"`
}

type BookRequest struct {
	Title         string      `json:"title" form:"title" validate:"required,max=200"`
	Author        string      `json:"author" form:"author" validate:"required,max=100"`
	ISBN          string      `json:"isbn" form:"isbn" validate:"omitempty,max=13"`
	YearPublished *int        `json:"yearPublished" form:"yearPublished" validate:"omitempty,min=1000,max=2030"`
	Available     *bool       `json:"available" form:"available"`
	CategoryIDs   []uuid.UUID `json:"categoryIds" form:"categoryIds"`
}

// IsAvailable defaults a missing flag to true.
func (r BookRequest) IsAvailable() bool {
	return r.Available == nil || *r.Available
}

type BookAvailability string

const (
	AvailabilityAny         BookAvailability = ""
	AvailabilityAvailable   BookAvailability = "available"
	AvailabilityBorrowed    BookAvailability = "borrowed"
	AvailabilityUnavailable BookAvailability = "unavailable"
)

type BookSort string

const (
	SortTitle      BookSort = "title"
	SortTitleDesc  BookSort = "title_desc"
	SortAuthor     BookSort = "author"
	SortAuthorDesc BookSort = "author_desc"
)

type BookFilter struct {
	Search       string
	CategoryID   uuid.UUID
	Availability BookAvailability
	Sort         BookSort
}

type BookSearch struct {
	Title     string
	Author    string
	Category  string
	Available *bool
	Page      int
	PageSize  int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize applies the paging defaults and caps.
func (s BookSearch) Normalize() BookSearch {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	return s
}

type BookPage struct {
	Books      []BookSummary `json:"books"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
