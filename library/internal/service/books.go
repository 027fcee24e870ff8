package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/lending"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.BookSummary, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListBooks(ctx, filter)
}

func (s *Service) SearchBooks(ctx context.Context, search model.BookSearch) (model.BookPage, error) {
	search = search.Normalize()
	books, total, err := s.repo.SearchBooks(ctx, search)
	if err != nil {
		return model.BookPage{}, err
	}
	return model.BookPage{
		Books:      books,
		TotalCount: total,
		Page:       search.Page,
		PageSize:   search.PageSize,
		TotalPages: model.TotalPages(total, search.PageSize),
	}, nil
}

// GetBook returns the book page data. For a member it also reports their own history with the book.
func (s *Service) GetBook(ctx context.Context, id auth.Identity, bookID uuid.UUID) (model.BookDetail, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.BookDetail{}, err
	}
	categories, err := s.repo.BookCategories(ctx, bookID)
	if err != nil {
		return model.BookDetail{}, err
	}
	reviews, err := s.repo.BookReviews(ctx, bookID)
	if err != nil {
		return model.BookDetail{}, err
	}
	stats, err := s.loanStats(ctx, bookID, ComputeStats(reviews))
	if err != nil {
		return model.BookDetail{}, err
	}

	detail := model.BookDetail{
		Book:       book,
		Categories: categories,
		Reviews:    reviews,
		Statistics: stats,
	}
	if id.IsMember() && id.MemberID != uuid.Nil {
		borrowed, err := s.repo.HasBorrowed(ctx, id.MemberID, bookID)
		if err != nil {
			return model.BookDetail{}, err
		}
		viewer := &model.BookViewer{HasBorrowed: borrowed}
		for i := range reviews {
			if reviews[i].MemberID == id.MemberID {
				viewer.HasReviewed = true
				viewer.Review = &reviews[i]
				break
			}
		}
		detail.Viewer = viewer
	}
	return detail, nil
}

func (s *Service) BookStats(ctx context.Context, bookID uuid.UUID) (model.BookStats, error) {
	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return model.BookStats{}, err
	}
	reviews, err := s.repo.BookReviews(ctx, bookID)
	if err != nil {
		return model.BookStats{}, err
	}
	return s.loanStats(ctx, bookID, ComputeStats(reviews))
}

func (s *Service) loanStats(ctx context.Context, bookID uuid.UUID, st model.BookStats) (model.BookStats, error) {
	total, err := s.repo.CountBookLoans(ctx, bookID)
	if err != nil {
		return model.BookStats{}, err
	}
	onLoan, err := s.repo.HasActiveLoan(ctx, bookID)
	if err != nil {
		return model.BookStats{}, err
	}
	st.TotalBorrowings = total
	st.CurrentlyBorrowed = onLoan
	return st, nil
}

func bookFromRequest(b model.Book, req model.BookRequest) model.Book {
	b.Title = strings.TrimSpace(req.Title)
	b.Author = strings.TrimSpace(req.Author)
	b.ISBN = nil
	if isbn := strings.TrimSpace(req.ISBN); isbn != "" {
		b.ISBN = &isbn
	}
	b.YearPublished = req.YearPublished
	return b
}

func (s *Service) CreateBook(ctx context.Context, id auth.Identity, req model.BookRequest) (model.BookSummary, error) {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return model.BookSummary{}, err
	}
	book := bookFromRequest(model.Book{
		ID:        uuid.New(),
		Available: req.IsAvailable(),
		CreatedAt: s.now(),
	}, req)

	var names []string
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateBook(ctx, book); err != nil {
			return err
		}
		if err := tx.SetBookCategories(ctx, book.ID, req.CategoryIDs); err != nil {
			return err
		}
		categories, err := tx.BookCategories(ctx, book.ID)
		if err != nil {
			return err
		}
		names = make([]string, 0, len(categories))
		for _, c := range categories {
			names = append(names, c.Name)
		}
		return nil
	})
	if err != nil {
		return model.BookSummary{}, err
	}
	return model.BookSummary{Book: book, Categories: names}, nil
}

// UpdateBook replaces the fields and the category set. Marking a book on loan as available is refused.
func (s *Service) UpdateBook(ctx context.Context, id auth.Identity, bookID uuid.UUID, req model.BookRequest) error {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return err
	}
	return s.repo.InTx(ctx, func(tx repository.Repository) error {
		current, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}
		book := bookFromRequest(current, req)
		if req.Available != nil && *req.Available != current.Available {
			onLoan, err := tx.HasActiveLoan(ctx, bookID)
			if err != nil {
				return err
			}
			if err := lending.DecideToggle(onLoan); err != nil {
				return err
			}
			book.Available = *req.Available
		}
		if err := tx.UpdateBook(ctx, book); err != nil {
			return err
		}
		return tx.SetBookCategories(ctx, bookID, req.CategoryIDs)
	})
}

func (s *Service) DeleteBook(ctx context.Context, id auth.Identity, bookID uuid.UUID) error {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return err
	}
	var title string
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}
		title = book.Title
		onLoan, err := tx.HasActiveLoan(ctx, bookID)
		if err != nil {
			return err
		}
		if onLoan {
			return errs.ErrBookOnLoan
		}
		return tx.DeleteBook(ctx, bookID)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, model.Event{
		Type:    model.EventBookDeleted,
		BookID:  model.Ref(bookID),
		Message: "Book deleted: " + title,
	})
	return nil
}

// ToggleAvailability flips the manual availability flag and returns the new value.
func (s *Service) ToggleAvailability(ctx context.Context, id auth.Identity, bookID uuid.UUID) (bool, error) {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return false, err
	}
	var available bool
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}
		onLoan, err := tx.HasActiveLoan(ctx, bookID)
		if err != nil {
			return err
		}
		if err := lending.DecideToggle(onLoan); err != nil {
			return err
		}
		available = !book.Available
		return tx.SetBookAvailable(ctx, bookID, available)
	})
	if err != nil {
		return false, err
	}
	return available, nil
}
