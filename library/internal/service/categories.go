package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func (s *Service) ListCategories(ctx context.Context) ([]model.CategorySummary, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (model.CategoryDetail, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return model.CategoryDetail{}, err
	}
	books, err := s.repo.CategoryBooks(ctx, id)
	if err != nil {
		return model.CategoryDetail{}, err
	}
	return model.CategoryDetail{Category: c, Books: books}, nil
}

func categoryFromRequest(c model.Category, req model.CategoryRequest) model.Category {
	c.Name = strings.TrimSpace(req.Name)
	c.Description = nil
	if d := strings.TrimSpace(req.Description); d != "" {
		c.Description = &d
	}
	return c
}

func (s *Service) CreateCategory(ctx context.Context, id auth.Identity, req model.CategoryRequest) (model.Category, error) {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return model.Category{}, err
	}
	c := categoryFromRequest(model.Category{ID: uuid.New()}, req)
	if c.Name == "" {
		return model.Category{}, errs.Validation("name is required")
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID, req model.CategoryRequest) error {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return err
	}
	c := categoryFromRequest(model.Category{ID: categoryID}, req)
	if c.Name == "" {
		return errs.Validation("name is required")
	}
	return s.repo.UpdateCategory(ctx, c)
}

// DeleteCategory refuses while any book still references the category.
func (s *Service) DeleteCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID) error {
	if err := auth.Authorize(id, auth.ManageCatalog, auth.Resource{}); err != nil {
		return err
	}
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.GetCategory(ctx, categoryID); err != nil {
			return err
		}
		n, err := tx.CountCategoryBooks(ctx, categoryID)
		if err != nil {
			return err
		}
		if n > 0 {
			return &errs.CategoryInUseError{Count: n}
		}
		return tx.DeleteCategory(ctx, categoryID)
	})
	var inUse *errs.CategoryInUseError
	if errors.Is(err, errs.ErrCategoryInUse) && !errors.As(err, &inUse) {
		// a book was attached after the count; report the current one
		n, cerr := s.repo.CountCategoryBooks(ctx, categoryID)
		if cerr != nil {
			return err
		}
		return &errs.CategoryInUseError{Count: n}
	}
	return err
}
