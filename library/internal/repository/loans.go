package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

var loanColumns = []string{
	"l.id", "l.book_id", "l.member_id", "l.borrow_date", "l.due_date",
	"l.return_date", "l.status", "l.overdue_notified_at",
}

func loanViewQuery() sq.SelectBuilder {
	return qb.Select(loanColumns...).
		Columns("b.title AS book_title", "b.author AS book_author", "m.name AS member_name", "m.email AS member_email").
		From(borrowingsTableName + " l").
		Join(fmt.Sprintf("%s b ON b.id = l.book_id", booksTableName)).
		Join(fmt.Sprintf("%s m ON m.id = l.member_id", membersTableName))
}

func (r *repository) CreateLoan(ctx context.Context, loan model.Loan) error {
	_, err := r.exec(ctx, qb.Insert(borrowingsTableName).
		Columns("id", "book_id", "member_id", "borrow_date", "due_date", "status").
		Values(loan.ID, loan.BookID, loan.MemberID, loan.BorrowDate, loan.DueDate, loan.Status))
	return err
}

func (r *repository) GetLoan(ctx context.Context, id uuid.UUID) (model.LoanView, error) {
	return selectOne[model.LoanView](ctx, r, loanViewQuery().Where(sq.Eq{"l.id": id}))
}

func (r *repository) LockLoan(ctx context.Context, id uuid.UUID) (model.Loan, error) {
	return selectOne[model.Loan](ctx, r, qb.Select(loanColumns...).
		From(borrowingsTableName+" l").
		Where(sq.Eq{"l.id": id}).
		Suffix("FOR UPDATE"))
}

func (r *repository) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.execOne(ctx, qb.Update(borrowingsTableName).
		Set("status", model.LoanReturned).
		Set("return_date", at).
		Where(sq.Eq{"id": id, "status": model.LoanBorrowed}))
}

func (r *repository) ListLoans(ctx context.Context, query model.LoanQuery) ([]model.LoanView, error) {
	q := loanViewQuery()
	switch query.Filter {
	case model.LoanFilterActive:
		q = q.Where(sq.Eq{"l.status": model.LoanBorrowed})
	case model.LoanFilterOverdue:
		q = q.Where(sq.Eq{"l.status": model.LoanBorrowed}).Where(sq.Lt{"l.due_date": query.Now})
	case model.LoanFilterReturned:
		q = q.Where(sq.Eq{"l.status": model.LoanReturned})
	}
	if query.MemberID != uuid.Nil {
		q = q.Where(sq.Eq{"l.member_id": query.MemberID})
	}
	if query.BookID != uuid.Nil {
		q = q.Where(sq.Eq{"l.book_id": query.BookID})
	}
	if query.OldestDueFirst {
		q = q.OrderBy("l.due_date")
	} else {
		q = q.OrderBy("l.borrow_date DESC")
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	return selectAll[model.LoanView](ctx, r, q)
}

func (r *repository) CountActiveLoans(ctx context.Context, memberID uuid.UUID) (int, error) {
	return selectInt(ctx, r, qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"member_id": memberID, "status": model.LoanBorrowed}))
}

func (r *repository) CountOverdueLoans(ctx context.Context, memberID uuid.UUID, now time.Time) (int, error) {
	return selectInt(ctx, r, qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"member_id": memberID, "status": model.LoanBorrowed}).
		Where(sq.Lt{"due_date": now}))
}

func (r *repository) HasActiveLoan(ctx context.Context, bookID uuid.UUID) (bool, error) {
	n, err := selectInt(ctx, r, qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"book_id": bookID, "status": model.LoanBorrowed}))
	return n > 0, err
}

func (r *repository) HasBorrowed(ctx context.Context, memberID, bookID uuid.UUID) (bool, error) {
	n, err := selectInt(ctx, r, qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"member_id": memberID, "book_id": bookID}))
	return n > 0, err
}

func (r *repository) CountBookLoans(ctx context.Context, bookID uuid.UUID) (int, error) {
	return selectInt(ctx, r, qb.Select("count(*)").
		From(borrowingsTableName).
		Where(sq.Eq{"book_id": bookID}))
}

// PendingOverdueNotices returns borrowed loans past due that were never announced.
func (r *repository) PendingOverdueNotices(ctx context.Context, now time.Time, limit uint64) ([]model.LoanView, error) {
	return selectAll[model.LoanView](ctx, r, loanViewQuery().
		Where(sq.Eq{"l.status": model.LoanBorrowed, "l.overdue_notified_at": nil}).
		Where(sq.Lt{"l.due_date": now}).
		OrderBy("l.due_date").
		Limit(limit))
}

func (r *repository) MarkOverdueNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.execOne(ctx, qb.Update(borrowingsTableName).
		Set("overdue_notified_at", at).
		Where(sq.Eq{"id": id, "overdue_notified_at": nil}))
}
