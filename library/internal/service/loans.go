package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/lending"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/auth"
	"github.com/Astemirdum/library-catalog/pkg/retry"
)

// CreateLoan lends a book to a member. The book row stays locked until the loan is stored.
func (s *Service) CreateLoan(ctx context.Context, id auth.Identity, req model.LoanRequest) (model.Loan, error) {
	if err := auth.Authorize(id, auth.ManageLoans, auth.Resource{}); err != nil {
		return model.Loan{}, err
	}

	var (
		loan   model.Loan
		book   model.Book
		member model.Member
	)
	err := retry.Do(ctx, func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(tx repository.Repository) error {
			now := s.now()
			state := lending.LoanState{
				DueDate: lending.DueDate(req.DueDate, now, s.opts.LoanPeriod),
				Now:     now,
			}

			var err error
			book, err = tx.LockBook(ctx, req.BookID)
			switch {
			case err == nil:
				state.BookFound = true
				state.BookAvailable = book.Available
			case !errors.Is(err, errs.ErrNotFound):
				return err
			}
			if state.BookFound && state.BookAvailable {
				member, err = tx.GetMember(ctx, req.MemberID)
				switch {
				case err == nil:
					state.MemberFound = true
					state.MemberActive = member.IsActive
				case !errors.Is(err, errs.ErrNotFound):
					return err
				}
			}
			if state.MemberFound && state.MemberActive {
				if state.OverdueCount, err = tx.CountOverdueLoans(ctx, req.MemberID, now); err != nil {
					return err
				}
			}
			if err := lending.DecideLoan(state); err != nil {
				return err
			}

			loan = model.Loan{
				ID:         uuid.New(),
				BookID:     req.BookID,
				MemberID:   req.MemberID,
				BorrowDate: now,
				DueDate:    state.DueDate,
				Status:     model.LoanBorrowed,
			}
			if err := tx.CreateLoan(ctx, loan); err != nil {
				return err
			}
			return tx.SetBookAvailable(ctx, req.BookID, false)
		})
	}, retry.WithRetryIf(repository.IsRetryable))
	if err != nil {
		return model.Loan{}, err
	}

	s.log.Info("loan created",
		zap.String("loan", loan.ID.String()),
		zap.String("book", loan.BookID.String()),
		zap.String("member", loan.MemberID.String()))
	s.emit(ctx, model.Event{
		Type:     model.EventLoanCreated,
		BookID:   model.Ref(loan.BookID),
		MemberID: model.Ref(loan.MemberID),
		LoanID:   model.Ref(loan.ID),
		Message:  fmt.Sprintf("%s borrowed %q", member.Name, book.Title),
	})
	return loan, nil
}

// ReturnLoan closes a borrowed loan and makes the book available again.
func (s *Service) ReturnLoan(ctx context.Context, id auth.Identity, loanID uuid.UUID) (model.Loan, error) {
	if err := auth.Authorize(id, auth.ManageLoans, auth.Resource{}); err != nil {
		return model.Loan{}, err
	}
	var loan model.Loan
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		var err error
		loan, err = tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if err := lending.DecideReturn(loan); err != nil {
			return err
		}
		now := s.now()
		if err := tx.MarkReturned(ctx, loanID, now); err != nil {
			return err
		}
		loan.Status = model.LoanReturned
		loan.ReturnDate = &now
		return tx.SetBookAvailable(ctx, loan.BookID, true)
	})
	if err != nil {
		return model.Loan{}, err
	}

	s.emit(ctx, model.Event{
		Type:     model.EventLoanReturned,
		BookID:   model.Ref(loan.BookID),
		MemberID: model.Ref(loan.MemberID),
		LoanID:   model.Ref(loan.ID),
		Message:  "Loan returned",
	})
	return loan, nil
}

func (s *Service) ListLoans(ctx context.Context, id auth.Identity, filter model.LoanFilter) ([]model.LoanView, error) {
	if err := auth.Authorize(id, auth.ManageLoans, auth.Resource{}); err != nil {
		return nil, err
	}
	return s.repo.ListLoans(ctx, model.LoanQuery{Filter: filter, Now: s.now()})
}

func (s *Service) GetLoan(ctx context.Context, id auth.Identity, loanID uuid.UUID) (model.LoanView, error) {
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return model.LoanView{}, err
	}
	if err := auth.Authorize(id, auth.ViewOwnLoans, auth.Resource{OwnerMemberID: loan.MemberID}); err != nil {
		return model.LoanView{}, err
	}
	return loan, nil
}

// MemberLoans is the borrowing history of one member, newest first.
func (s *Service) MemberLoans(ctx context.Context, id auth.Identity, memberID uuid.UUID) ([]model.LoanView, error) {
	if err := auth.Authorize(id, auth.ViewOwnLoans, auth.Resource{OwnerMemberID: memberID}); err != nil {
		return nil, err
	}
	if memberID == uuid.Nil {
		return nil, errs.ErrMemberNotFound
	}
	return s.repo.ListLoans(ctx, model.LoanQuery{Filter: model.LoanFilterAll, MemberID: memberID, Now: s.now()})
}

func (s *Service) BookLoans(ctx context.Context, id auth.Identity, bookID uuid.UUID) ([]model.LoanView, error) {
	if err := auth.Authorize(id, auth.ManageLoans, auth.Resource{}); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.ListLoans(ctx, model.LoanQuery{Filter: model.LoanFilterAll, BookID: bookID, Now: s.now()})
}
