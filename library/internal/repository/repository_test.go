package repository

import (
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
)

func Test_mapErr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, errs.ErrNotFound},
		{"isbn", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "books_isbn_key"}, errs.ErrDuplicateISBN},
		{"open loan", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "borrowings_open_book_key"}, errs.ErrBookUnavailable},
		{"review", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "book_reviews_member_book_key"}, errs.ErrAlreadyReviewed},
		{"card", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "members_card_number_key"}, errs.ErrDuplicateCard},
		{"category fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "book_categories_category_id_fkey"}, errs.ErrNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, mapErr(errors.Wrap(tt.err, "exec")), tt.want)
		})
	}

	other := errors.New("boom")
	require.Equal(t, other, mapErr(other))
}

func Test_mapDeleteErr(t *testing.T) {
	t.Parallel()
	restrict := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "book_categories_category_id_fkey"}
	require.ErrorIs(t, mapDeleteErr(restrict), errs.ErrCategoryInUse)
	require.NotErrorIs(t, mapDeleteErr(restrict), errs.ErrNotFound)
	require.ErrorIs(t, mapDeleteErr(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "borrowings_book_id_fkey"}), errs.ErrNotFound)
	require.ErrorIs(t, mapDeleteErr(pgx.ErrNoRows), errs.ErrNotFound)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	require.True(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	require.True(t, IsRetryable(errors.Wrap(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}, "tx")))
	require.False(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	require.False(t, IsRetryable(errs.ErrBookUnavailable))
}

func Test_likePattern(t *testing.T) {
	t.Parallel()
	require.Equal(t, "%dune%", likePattern("dune"))
	require.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func Test_bookSummaryQuery(t *testing.T) {
	t.Parallel()
	query, args, err := bookSummaryQuery().Where("b.id = ?", "x").ToSql()
	require.NoError(t, err)
	require.Contains(t, query, "AS average_rating")
	require.Contains(t, query, "round(avg(r.rating)::float8 * 10) / 10")
	require.Contains(t, query, "WHERE b.id = $1")
	require.Equal(t, []interface{}{"x"}, args)
}
