package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func checkReview(req model.ReviewRequest) (*string, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, errs.Validation("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if len([]rune(comment)) > 1000 {
		return nil, errs.Validation("comment must be at most 1000 characters")
	}
	if comment == "" {
		return nil, nil
	}
	return &comment, nil
}

// SubmitReview stores the caller's review and pushes fresh statistics to the book's viewers.
func (s *Service) SubmitReview(ctx context.Context, id auth.Identity, req model.ReviewRequest) (model.ReviewResult, error) {
	if err := auth.Authorize(id, auth.SubmitReview, auth.Resource{}); err != nil {
		if errors.Is(err, auth.ErrForbidden) && id.IsMember() && id.MemberID == uuid.Nil {
			return model.ReviewResult{}, errs.ErrMemberNotFound
		}
		return model.ReviewResult{}, err
	}
	if req.BookID == uuid.Nil {
		return model.ReviewResult{}, errs.ErrNotFound
	}
	comment, err := checkReview(req)
	if err != nil {
		return model.ReviewResult{}, err
	}

	var res model.ReviewResult
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.GetMember(ctx, id.MemberID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrMemberNotFound
			}
			return err
		}
		if _, err := tx.GetBook(ctx, req.BookID); err != nil {
			return err
		}
		borrowed, err := tx.HasBorrowed(ctx, id.MemberID, req.BookID)
		if err != nil {
			return err
		}
		if !borrowed {
			return errs.ErrNotBorrowed
		}

		review := model.Review{
			ID:         uuid.New(),
			BookID:     req.BookID,
			MemberID:   id.MemberID,
			IsLike:     req.IsLike,
			Rating:     req.Rating,
			Comment:    comment,
			ReviewDate: s.now(),
		}
		existing, err := tx.FindReview(ctx, id.MemberID, req.BookID)
		switch {
		case err == nil:
			if s.opts.ReviewPolicy != model.ReviewPolicyUpsert {
				return errs.ErrAlreadyReviewed
			}
			review.ID = existing.ID
			if review.Rating == nil {
				review.Rating = existing.Rating
			}
			err = tx.UpdateReview(ctx, review)
		case errors.Is(err, errs.ErrNotFound):
			err = tx.CreateReview(ctx, review)
		}
		if err != nil {
			return err
		}
		res, err = reviewResult(ctx, tx, review.ID)
		return err
	})
	if err != nil {
		return model.ReviewResult{}, err
	}

	s.broadcast(ctx, req.BookID, hub.StatsEvent(req.BookID.String(), res.Stats), hub.NewReviewEvent(res.Review))
	s.emit(ctx, model.Event{
		Type:     model.EventReviewSubmitted,
		BookID:   model.Ref(req.BookID),
		MemberID: model.Ref(id.MemberID),
		ReviewID: model.Ref(res.Review.ID),
		Message:  res.Review.MemberName + " reviewed " + res.Review.BookTitle,
	})
	return res, nil
}

// reviewResult reloads the review with names and recomputes the book statistics.
func reviewResult(ctx context.Context, tx repository.Repository, reviewID uuid.UUID) (model.ReviewResult, error) {
	view, err := tx.GetReview(ctx, reviewID)
	if err != nil {
		return model.ReviewResult{}, err
	}
	reviews, err := tx.BookReviews(ctx, view.BookID)
	if err != nil {
		return model.ReviewResult{}, err
	}
	return model.ReviewResult{Review: view, Stats: ComputeStats(reviews)}, nil
}

func (s *Service) GetReview(ctx context.Context, id auth.Identity, reviewID uuid.UUID) (model.ReviewView, error) {
	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return model.ReviewView{}, err
	}
	if err := auth.Authorize(id, auth.EditReview, auth.Resource{OwnerMemberID: review.MemberID}); err != nil {
		return model.ReviewView{}, err
	}
	return review, nil
}

// EditReview rewrites a review in place. Only the owner or a librarian may edit.
func (s *Service) EditReview(ctx context.Context, id auth.Identity, reviewID uuid.UUID, req model.ReviewRequest) (model.ReviewResult, error) {
	comment, err := checkReview(req)
	if err != nil {
		return model.ReviewResult{}, err
	}
	var res model.ReviewResult
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		current, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(id, auth.EditReview, auth.Resource{OwnerMemberID: current.MemberID}); err != nil {
			return err
		}
		review := current.Review
		review.IsLike = req.IsLike
		review.Comment = comment
		review.Rating = req.Rating
		review.ReviewDate = s.now()
		if err := tx.UpdateReview(ctx, review); err != nil {
			return err
		}
		res, err = reviewResult(ctx, tx, reviewID)
		return err
	})
	if err != nil {
		return model.ReviewResult{}, err
	}
	bookID := res.Review.BookID
	s.broadcast(ctx, bookID, hub.StatsEvent(bookID.String(), res.Stats), hub.NewReviewEvent(res.Review))
	return res, nil
}

// DeleteReview removes a review and returns the id of its book.
func (s *Service) DeleteReview(ctx context.Context, id auth.Identity, reviewID uuid.UUID) (uuid.UUID, error) {
	var (
		review model.ReviewView
		stats  model.BookStats
	)
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		var err error
		review, err = tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(id, auth.DeleteReview, auth.Resource{OwnerMemberID: review.MemberID}); err != nil {
			return err
		}
		if err := tx.DeleteReview(ctx, reviewID); err != nil {
			return err
		}
		reviews, err := tx.BookReviews(ctx, review.BookID)
		if err != nil {
			return err
		}
		stats = ComputeStats(reviews)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.broadcast(ctx, review.BookID,
		hub.StatsEvent(review.BookID.String(), stats),
		hub.ReviewDeletedEvent(reviewID.String()))
	s.emit(ctx, model.Event{
		Type:     model.EventReviewDeleted,
		BookID:   model.Ref(review.BookID),
		MemberID: model.Ref(review.MemberID),
		ReviewID: model.Ref(reviewID),
		Message:  "Review deleted on " + review.BookTitle,
	})
	return review.BookID, nil
}
