package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

var conflicts = []error{
	errs.ErrOverdue,
	errs.ErrBookUnavailable,
	errs.ErrMemberInactive,
	errs.ErrAlreadyReturned,
	errs.ErrAlreadyReviewed,
	errs.ErrBookOnLoan,
	errs.ErrCategoryInUse,
	errs.ErrActiveLoans,
	errs.ErrDuplicateISBN,
	errs.ErrDuplicateEmail,
	errs.ErrDuplicateCard,
	errs.ErrDuplicateCategory,
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrNotBorrowed), errors.Is(err, errs.ErrDueDateNotFuture):
		return http.StatusUnprocessableEntity
	}
	for _, target := range conflicts {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// httpError turns a service error into the JSON {"message": ...} answer.
// Unexpected failures keep their cause internal.
func httpError(err error) *echo.HTTPError {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		return echo.NewHTTPError(code).SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error())
}

// isUserError reports failures the page UI shows as a flash message.
func isUserError(err error) bool {
	return statusOf(err) < http.StatusInternalServerError
}
