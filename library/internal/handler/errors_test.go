package handler

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{err: errs.Validation("rating must be between 1 and 5"), want: http.StatusBadRequest},
		{err: auth.ErrUnauthenticated, want: http.StatusUnauthorized},
		{err: errs.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: auth.ErrForbidden, want: http.StatusForbidden},
		{err: errs.ErrNotFound, want: http.StatusNotFound},
		{err: errs.ErrMemberNotFound, want: http.StatusNotFound},
		{err: errs.ErrNotBorrowed, want: http.StatusUnprocessableEntity},
		{err: errs.ErrDueDateNotFuture, want: http.StatusUnprocessableEntity},
		{err: &errs.OverdueError{Count: 1}, want: http.StatusConflict},
		{err: errs.ErrBookUnavailable, want: http.StatusConflict},
		{err: errs.ErrMemberInactive, want: http.StatusConflict},
		{err: errs.ErrAlreadyReturned, want: http.StatusConflict},
		{err: errs.ErrAlreadyReviewed, want: http.StatusConflict},
		{err: errs.ErrBookOnLoan, want: http.StatusConflict},
		{err: &errs.CategoryInUseError{Count: 3}, want: http.StatusConflict},
		{err: &errs.ActiveLoansError{Count: 2}, want: http.StatusConflict},
		{err: errors.Wrap(errs.ErrDuplicateEmail, "create member"), want: http.StatusConflict},
		{err: errs.ErrDuplicateCard, want: http.StatusConflict},
		{err: errs.ErrDuplicateISBN, want: http.StatusConflict},
		{err: errs.ErrDuplicateCategory, want: http.StatusConflict},
		{err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, statusOf(tt.err))
			require.Equal(t, tt.want < http.StatusInternalServerError, isUserError(tt.err))
		})
	}
}

func TestHTTPError_HidesInternalCause(t *testing.T) {
	t.Parallel()
	he := httpError(errors.New("pq: password authentication failed"))
	require.Equal(t, http.StatusInternalServerError, he.Code)
	require.Equal(t, http.StatusText(http.StatusInternalServerError), he.Message)

	he = httpError(errs.ErrBookOnLoan)
	require.Equal(t, http.StatusConflict, he.Code)
	require.Equal(t, errs.ErrBookOnLoan.Error(), he.Message)
}

func TestSafeNext(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"/books?page=2":       "/books?page=2",
		"":                    "",
		"https://evil.test/":  "",
		"//evil.test":         "",
		"/\\evil.test":        "",
		"/catalog/1234/extra": "/catalog/1234/extra",
	}
	for in, want := range tests {
		require.Equal(t, want, safeNext(in), in)
	}
}
