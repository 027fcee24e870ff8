package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
)

func (r *repository) ListCategories(ctx context.Context) ([]model.CategorySummary, error) {
	return selectAll[model.CategorySummary](ctx, r, qb.Select("c.id", "c.name", "c.description", "count(bc.book_id) AS book_count").
		From(categoriesTableName+" c").
		LeftJoin(fmt.Sprintf("%s bc ON bc.category_id = c.id", bookCategoriesTableName)).
		GroupBy("c.id").
		OrderBy("c.name"))
}

func (r *repository) GetCategory(ctx context.Context, id uuid.UUID) (model.Category, error) {
	return selectOne[model.Category](ctx, r, qb.Select("id", "name", "description").
		From(categoriesTableName).
		Where(sq.Eq{"id": id}))
}

func (r *repository) CategoryBooks(ctx context.Context, id uuid.UUID) ([]model.Book, error) {
	return selectAll[model.Book](ctx, r, qb.Select(bookColumns...).
		From(booksTableName+" b").
		Join(fmt.Sprintf("%s bc ON bc.book_id = b.id", bookCategoriesTableName)).
		Where(sq.Eq{"bc.category_id": id}).
		OrderBy("b.title"))
}

func (r *repository) CountCategoryBooks(ctx context.Context, id uuid.UUID) (int, error) {
	return selectInt(ctx, r, qb.Select("count(*)").
		From(bookCategoriesTableName).
		Where(sq.Eq{"category_id": id}))
}

func (r *repository) CreateCategory(ctx context.Context, category model.Category) error {
	_, err := r.exec(ctx, qb.Insert(categoriesTableName).
		Columns("id", "name", "description").
		Values(category.ID, category.Name, category.Description))
	return err
}

func (r *repository) UpdateCategory(ctx context.Context, category model.Category) error {
	return r.execOne(ctx, qb.Update(categoriesTableName).
		Set("name", category.Name).
		Set("description", category.Description).
		Where(sq.Eq{"id": category.ID}))
}

func (r *repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.execMapped(ctx, qb.Delete(categoriesTableName).Where(sq.Eq{"id": id}), mapDeleteErr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
