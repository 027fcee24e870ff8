package repository

import (
	"context"
	"time"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

func (r *repository) AddActivity(ctx context.Context, e model.ActivityEntry) error {
	_, err := r.exec(ctx, qb.Insert(activityTableName).
		Columns("id", "kind", "book_id", "member_id", "loan_id", "review_id", "message", "occurred_at").
		Values(e.ID, e.Kind, e.BookID, e.MemberID, e.LoanID, e.ReviewID, e.Message, e.OccurredAt).
		Suffix("ON CONFLICT (id) DO NOTHING"))
	return err
}

func (r *repository) RecentActivity(ctx context.Context, limit uint64) ([]model.ActivityEntry, error) {
	return selectAll[model.ActivityEntry](ctx, r, qb.Select("id", "kind", "book_id", "member_id", "loan_id", "review_id", "message", "occurred_at").
		From(activityTableName).
		OrderBy("occurred_at DESC").
		Limit(limit))
}

func (r *repository) DashboardTotals(ctx context.Context, now time.Time) (model.DashboardTotals, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	const q = `
SELECT
    (SELECT count(*) FROM books),
    (SELECT count(*) FROM books WHERE available),
    (SELECT count(*) FROM members),
    (SELECT count(*) FROM members WHERE is_active),
    (SELECT count(*) FROM categories),
    (SELECT count(*) FROM borrowings WHERE status = 'Borrowed'),
    (SELECT count(*) FROM borrowings WHERE status = 'Borrowed' AND due_date < $1),
    (SELECT count(*) FROM borrowings WHERE status = 'Returned' AND return_date >= $2)`
	var t model.DashboardTotals
	err := r.q.QueryRow(ctx, q, now, startOfDay).Scan(
		&t.Books, &t.AvailableBooks, &t.Members, &t.ActiveMembers,
		&t.Categories, &t.ActiveLoans, &t.OverdueLoans, &t.ReturnedToday,
	)
	if err != nil {
		return model.DashboardTotals{}, mapErr(err)
	}
	return t, nil
}

func (r *repository) PopularBooks(ctx context.Context, limit uint64) ([]model.PopularBook, error) {
	return selectAll[model.PopularBook](ctx, r, qb.Select("b.id", "b.title", "b.author", "count(l.id) AS loan_count").
		From(booksTableName+" b").
		Join(borrowingsTableName+" l ON l.book_id = b.id").
		GroupBy("b.id").
		OrderBy("loan_count DESC", "b.title").
		Limit(limit))
}
