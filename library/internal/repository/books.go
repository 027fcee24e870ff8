package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/model"
)

var bookColumns = []string{"b.id", "b.title", "b.author", "b.isbn", "b.year_published", "b.available", "b.created_at"}

const openLoanExists = `EXISTS (SELECT 1 FROM borrowings l WHERE l.book_id = b.id AND l.status = 'Borrowed')`

func bookSummaryQuery() sq.SelectBuilder {
	return qb.Select(bookColumns...).
		Columns(
			`COALESCE((SELECT array_agg(c.name ORDER BY c.name) FROM book_categories bc JOIN categories c ON c.id = bc.category_id WHERE bc.book_id = b.id), '{}') AS categories`,
			`(SELECT count(*) FROM book_reviews r WHERE r.book_id = b.id) AS review_count`,
			`COALESCE((SELECT round(avg(r.rating)::float8 * 10) / 10 FROM book_reviews r WHERE r.book_id = b.id AND r.rating IS NOT NULL), 0) AS average_rating`,
			`(SELECT count(*) FROM book_reviews r WHERE r.book_id = b.id AND r.is_like) AS likes_count`,
			`(SELECT count(*) FROM book_reviews r WHERE r.book_id = b.id AND NOT r.is_like) AS dislikes_count`,
		).
		From(booksTableName + " b")
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.BookSummary, error) {
	q := bookSummaryQuery()
	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where(sq.Or{
			sq.ILike{"b.title": p},
			sq.ILike{"b.author": p},
			sq.ILike{"b.isbn": p},
		})
	}
	if filter.CategoryID != uuid.Nil {
		q = q.Where(sq.Expr("EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = b.id AND bc.category_id = ?)", filter.CategoryID))
	}
	switch filter.Availability {
	case model.AvailabilityAvailable:
		q = q.Where(sq.Eq{"b.available": true})
	case model.AvailabilityBorrowed:
		q = q.Where(openLoanExists)
	case model.AvailabilityUnavailable:
		q = q.Where(sq.Eq{"b.available": false})
	}
	switch filter.Sort {
	case model.SortTitleDesc:
		q = q.OrderBy("b.title DESC")
	case model.SortAuthor:
		q = q.OrderBy("b.author", "b.title")
	case model.SortAuthorDesc:
		q = q.OrderBy("b.author DESC", "b.title")
	default:
		q = q.OrderBy("b.title")
	}
	return selectAll[model.BookSummary](ctx, r, q)
}

func (r *repository) SearchBooks(ctx context.Context, search model.BookSearch) ([]model.BookSummary, int, error) {
	var where sq.And
	if search.Title != "" {
		where = append(where, sq.ILike{"b.title": likePattern(search.Title)})
	}
	if search.Author != "" {
		where = append(where, sq.ILike{"b.author": likePattern(search.Author)})
	}
	if search.Category != "" {
		where = append(where, sq.Expr(
			"EXISTS (SELECT 1 FROM book_categories bc JOIN categories c ON c.id = bc.category_id WHERE bc.book_id = b.id AND c.name ILIKE ?)",
			likePattern(search.Category)))
	}
	if search.Available != nil {
		where = append(where, sq.Eq{"b.available": *search.Available})
	}

	count := qb.Select("count(*)").From(booksTableName + " b")
	page := bookSummaryQuery().
		OrderBy("b.title", "b.id").
		Limit(uint64(search.PageSize)).
		Offset(uint64((search.Page - 1) * search.PageSize))
	if len(where) > 0 {
		count = count.Where(where)
		page = page.Where(where)
	}

	total, err := selectInt(ctx, r, count)
	if err != nil {
		return nil, 0, err
	}
	books, err := selectAll[model.BookSummary](ctx, r, page)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *repository) GetBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	return selectOne[model.Book](ctx, r, qb.Select(bookColumns...).
		From(booksTableName+" b").
		Where(sq.Eq{"b.id": id}))
}

func (r *repository) LockBook(ctx context.Context, id uuid.UUID) (model.Book, error) {
	return selectOne[model.Book](ctx, r, qb.Select(bookColumns...).
		From(booksTableName+" b").
		Where(sq.Eq{"b.id": id}).
		Suffix("FOR UPDATE"))
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) error {
	_, err := r.exec(ctx, qb.Insert(booksTableName).
		Columns("id", "title", "author", "isbn", "year_published", "available", "created_at").
		Values(book.ID, book.Title, book.Author, book.ISBN, book.YearPublished, book.Available, book.CreatedAt))
	return err
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) error {
	return r.execOne(ctx, qb.Update(booksTableName).
		Set("title", book.Title).
		Set("author", book.Author).
		Set("isbn", book.ISBN).
		Set("year_published", book.YearPublished).
		Set("available", book.Available).
		Where(sq.Eq{"id": book.ID}))
}

func (r *repository) SetBookAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	return r.execOne(ctx, qb.Update(booksTableName).
		Set("available", available).
		Where(sq.Eq{"id": id}))
}

// DeleteBook relies on ON DELETE CASCADE for reviews, loans and category links.
func (r *repository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, qb.Delete(booksTableName).Where(sq.Eq{"id": id}))
}

func (r *repository) SetBookCategories(ctx context.Context, bookID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := r.exec(ctx, qb.Delete(bookCategoriesTableName).Where(sq.Eq{"book_id": bookID})); err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	ins := qb.Insert(bookCategoriesTableName).Columns("book_id", "category_id")
	seen := make(map[uuid.UUID]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ins = ins.Values(bookID, id)
	}
	_, err := r.exec(ctx, ins)
	return err
}

func (r *repository) BookCategories(ctx context.Context, bookID uuid.UUID) ([]model.Category, error) {
	return selectAll[model.Category](ctx, r, qb.Select("c.id", "c.name", "c.description").
		From(categoriesTableName+" c").
		Join(fmt.Sprintf("%s bc ON bc.category_id = c.id", bookCategoriesTableName)).
		Where(sq.Eq{"bc.book_id": bookID}).
		OrderBy("c.name"))
}
