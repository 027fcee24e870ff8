package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	// InTx runs fn inside one transaction. Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error

	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.BookSummary, error)
	SearchBooks(ctx context.Context, search model.BookSearch) ([]model.BookSummary, int, error)
	GetBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	LockBook(ctx context.Context, id uuid.UUID) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) error
	UpdateBook(ctx context.Context, book model.Book) error
	SetBookAvailable(ctx context.Context, id uuid.UUID, available bool) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
	SetBookCategories(ctx context.Context, bookID uuid.UUID, categoryIDs []uuid.UUID) error
	BookCategories(ctx context.Context, bookID uuid.UUID) ([]model.Category, error)

	ListCategories(ctx context.Context) ([]model.CategorySummary, error)
	GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error)
	CategoryBooks(ctx context.Context, id uuid.UUID) ([]model.Book, error)
	CountCategoryBooks(ctx context.Context, id uuid.UUID) (int, error)
	CreateCategory(ctx context.Context, category model.Category) error
	UpdateCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListMembers(ctx context.Context, search string) ([]model.MemberSummary, error)
	GetMember(ctx context.Context, id uuid.UUID) (model.Member, error)
	CreateMember(ctx context.Context, member model.Member) error
	UpdateMember(ctx context.Context, member model.Member) error
	SetMemberActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteMember(ctx context.Context, id uuid.UUID) error

	CreateLoan(ctx context.Context, loan model.Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (model.LoanView, error)
	LockLoan(ctx context.Context, id uuid.UUID) (model.Loan, error)
	MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error
	ListLoans(ctx context.Context, query model.LoanQuery) ([]model.LoanView, error)
	CountActiveLoans(ctx context.Context, memberID uuid.UUID) (int, error)
	CountOverdueLoans(ctx context.Context, memberID uuid.UUID, now time.Time) (int, error)
	HasActiveLoan(ctx context.Context, bookID uuid.UUID) (bool, error)
	HasBorrowed(ctx context.Context, memberID, bookID uuid.UUID) (bool, error)
	CountBookLoans(ctx context.Context, bookID uuid.UUID) (int, error)
	PendingOverdueNotices(ctx context.Context, now time.Time, limit uint64) ([]model.LoanView, error)
	MarkOverdueNotified(ctx context.Context, id uuid.UUID, at time.Time) error

	GetReview(ctx context.Context, id uuid.UUID) (model.ReviewView, error)
	FindReview(ctx context.Context, memberID, bookID uuid.UUID) (model.ReviewView, error)
	CreateReview(ctx context.Context, review model.Review) error
	UpdateReview(ctx context.Context, review model.Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
	BookReviews(ctx context.Context, bookID uuid.UUID) ([]model.ReviewView, error)
	MemberReviews(ctx context.Context, memberID uuid.UUID) ([]model.ReviewView, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	LinkMemberUser(ctx context.Context, memberID, userID uuid.UUID) error

	AddActivity(ctx context.Context, entry model.ActivityEntry) error
	RecentActivity(ctx context.Context, limit uint64) ([]model.ActivityEntry, error)

	DashboardTotals(ctx context.Context, now time.Time) (model.DashboardTotals, error)
	PopularBooks(ctx context.Context, limit uint64) ([]model.PopularBook, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
	q    querier
	log  *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	if db == nil {
		return nil, errors.New("nil pool")
	}
	return &repository{
		pool: db,
		q:    db,
		log:  log.Named("repo"),
	}, nil
}

const (
	booksTableName          = `books`
	categoriesTableName     = `categories`
	bookCategoriesTableName = `book_categories`
	membersTableName        = `members`
	borrowingsTableName     = `borrowings`
	reviewsTableName        = `book_reviews`
	usersTableName          = `users`
	activityTableName       = `activity_log`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) InTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&repository{q: tx, log: r.log})
	})
}

func (r *repository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

func (r *repository) exec(ctx context.Context, b sq.Sqlizer) (pgconn.CommandTag, error) {
	return r.execMapped(ctx, b, mapErr)
}

func (r *repository) execMapped(ctx context.Context, b sq.Sqlizer, mapFn func(error) error) (pgconn.CommandTag, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		r.log.Debug("exec", zap.String("q", query), zap.Error(err))
		return tag, mapFn(err)
	}
	return tag, nil
}

// execOne fails with ErrNotFound when no row was touched.
func (r *repository) execOne(ctx context.Context, b sq.Sqlizer) error {
	tag, err := r.exec(ctx, b)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func selectAll[T any](ctx context.Context, r *repository, b sq.Sqlizer) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		r.log.Debug("query", zap.String("q", query), zap.Error(err))
		return nil, mapErr(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, mapErr(err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func selectOne[T any](ctx context.Context, r *repository, b sq.Sqlizer) (T, error) {
	var zero T
	query, args, err := b.ToSql()
	if err != nil {
		return zero, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return zero, mapErr(err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return zero, mapErr(err)
	}
	return item, nil
}

func selectInt(ctx context.Context, r *repository, b sq.Sqlizer) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

var uniqueConstraints = map[string]error{
	"books_isbn_key":               errs.ErrDuplicateISBN,
	"members_email_key":            errs.ErrDuplicateEmail,
	"users_email_key":              errs.ErrDuplicateEmail,
	"members_card_number_key":      errs.ErrDuplicateCard,
	"categories_name_key":          errs.ErrDuplicateCategory,
	"borrowings_open_book_key":     errs.ErrBookUnavailable,
	"book_reviews_member_book_key": errs.ErrAlreadyReviewed,
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			if mapped, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return mapped
			}
		case pgerrcode.ForeignKeyViolation:
			return errors.Wrap(errs.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// referencedConstraints name the RESTRICT foreign keys that keep a referenced row alive.
var referencedConstraints = map[string]error{
	"book_categories_category_id_fkey": errs.ErrCategoryInUse,
}

// mapDeleteErr reads a foreign key violation raised by a DELETE as the row
// still being referenced, not as a missing parent.
func mapDeleteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		if mapped, ok := referencedConstraints[pgErr.ConstraintName]; ok {
			return errors.Wrap(mapped, pgErr.ConstraintName)
		}
	}
	return mapErr(err)
}

// IsRetryable reports transaction conflicts worth running again.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

// likePattern escapes LIKE wildcards so user input matches literally.
func likePattern(s string) string {
	var b []rune
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			b = append(b, '\\')
		}
		b = append(b, c)
	}
	return "%" + string(b) + "%"
}
