package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

func reviewViewQuery() sq.SelectBuilder {
	return qb.Select("r.id", "r.book_id", "r.member_id", "r.is_like", "r.rating", "r.comment", "r.review_date",
		"m.name AS member_name", "b.title AS book_title").
		From(reviewsTableName + " r").
		Join(fmt.Sprintf("%s m ON m.id = r.member_id", membersTableName)).
		Join(fmt.Sprintf("%s b ON b.id = r.book_id", booksTableName))
}

func (r *repository) GetReview(ctx context.Context, id uuid.UUID) (model.ReviewView, error) {
	return selectOne[model.ReviewView](ctx, r, reviewViewQuery().Where(sq.Eq{"r.id": id}))
}

func (r *repository) FindReview(ctx context.Context, memberID, bookID uuid.UUID) (model.ReviewView, error) {
	return selectOne[model.ReviewView](ctx, r, reviewViewQuery().
		Where(sq.Eq{"r.member_id": memberID, "r.book_id": bookID}))
}

func (r *repository) CreateReview(ctx context.Context, review model.Review) error {
	_, err := r.exec(ctx, qb.Insert(reviewsTableName).
		Columns("id", "book_id", "member_id", "is_like", "rating", "comment", "review_date").
		Values(review.ID, review.BookID, review.MemberID, review.IsLike, review.Rating, review.Comment, review.ReviewDate))
	return err
}

func (r *repository) UpdateReview(ctx context.Context, review model.Review) error {
	return r.execOne(ctx, qb.Update(reviewsTableName).
		Set("is_like", review.IsLike).
		Set("rating", review.Rating).
		Set("comment", review.Comment).
		Set("review_date", review.ReviewDate).
		Where(sq.Eq{"id": review.ID}))
}

func (r *repository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, qb.Delete(reviewsTableName).Where(sq.Eq{"id": id}))
}

func (r *repository) BookReviews(ctx context.Context, bookID uuid.UUID) ([]model.ReviewView, error) {
	return selectAll[model.ReviewView](ctx, r, reviewViewQuery().
		Where(sq.Eq{"r.book_id": bookID}).
		OrderBy("r.review_date DESC"))
}

func (r *repository) MemberReviews(ctx context.Context, memberID uuid.UUID) ([]model.ReviewView, error) {
	return selectAll[model.ReviewView](ctx, r, reviewViewQuery().
		Where(sq.Eq{"r.member_id": memberID}).
		OrderBy("r.review_date DESC"))
}
