package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrBookUnavailable    = errors.New("book is not available for loan")
	ErrMemberInactive     = errors.New("member not found or inactive")
	ErrMemberNotFound     = errors.New("member not found")
	ErrDueDateNotFuture   = errors.New("due date must be in the future")
	ErrAlreadyReturned    = errors.New("loan already returned")
	ErrBookOnLoan         = errors.New("book is currently on loan")
	ErrNotBorrowed        = errors.New("you can only review books you have borrowed")
	ErrAlreadyReviewed    = errors.New("you have already reviewed this book")
	ErrDuplicateISBN      = errors.New("a book with this ISBN already exists")
	ErrDuplicateEmail     = errors.New("a member with this email already exists")
	ErrDuplicateCard      = errors.New("a member with this card number already exists")
	ErrDuplicateCategory  = errors.New("a category with this name already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")

	ErrOverdue       = errors.New("member has overdue loans")
	ErrCategoryInUse = errors.New("category is in use")
	ErrActiveLoans   = errors.New("member has active loans")
)

type OverdueError struct {
	Count int
}

func (e *OverdueError) Error() string {
	return fmt.Sprintf("member has %d overdue loan(s); new loans are blocked", e.Count)
}

func (e *OverdueError) Is(target error) bool { return target == ErrOverdue }

type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category is used by %d book(s) and cannot be deleted", e.Count)
}

func (e *CategoryInUseError) Is(target error) bool { return target == ErrCategoryInUse }

type ActiveLoansError struct {
	Count int
}

func (e *ActiveLoansError) Error() string {
	return fmt.Sprintf("member has %d active loan(s)", e.Count)
}

func (e *ActiveLoansError) Is(target error) bool { return target == ErrActiveLoans }

// Validation wraps a request validation failure so it maps to 400.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

type ValidationErrorResponse struct {
	Message string `json:"message"`
}
