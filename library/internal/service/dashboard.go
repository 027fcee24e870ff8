package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

const (
	recentLoansLimit  = 5
	overdueLoansLimit = 10
	popularBooksLimit = 5
	activityLimit     = 10
)

func (s *Service) AdminDashboard(ctx context.Context, id auth.Identity) (model.AdminDashboard, error) {
	if err := auth.Authorize(id, auth.ViewDashboard, auth.Resource{}); err != nil {
		return model.AdminDashboard{}, err
	}
	if !id.IsLibrarian() {
		return model.AdminDashboard{}, auth.ErrForbidden
	}
	now := s.now()
	var d model.AdminDashboard
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		d.Totals, err = s.repo.DashboardTotals(ctx, now)
		return err
	})
	eg.Go(func() (err error) {
		d.RecentLoans, err = s.repo.ListLoans(ctx, model.LoanQuery{Filter: model.LoanFilterAll, Limit: recentLoansLimit, Now: now})
		return err
	})
	eg.Go(func() (err error) {
		d.OverdueLoans, err = s.repo.ListLoans(ctx, model.LoanQuery{
			Filter:         model.LoanFilterOverdue,
			Limit:          overdueLoansLimit,
			Now:            now,
			OldestDueFirst: true,
		})
		return err
	})
	eg.Go(func() (err error) {
		d.PopularBooks, err = s.repo.PopularBooks(ctx, popularBooksLimit)
		return err
	})
	eg.Go(func() (err error) {
		d.Activity, err = s.repo.RecentActivity(ctx, activityLimit)
		return err
	})
	if err := eg.Wait(); err != nil {
		return model.AdminDashboard{}, err
	}
	return d, nil
}

func (s *Service) MemberDashboard(ctx context.Context, id auth.Identity, tab model.MemberTab) (model.MemberDashboard, error) {
	if err := auth.Authorize(id, auth.ViewOwnLoans, auth.Resource{}); err != nil {
		return model.MemberDashboard{}, err
	}
	if id.MemberID == uuid.Nil {
		return model.MemberDashboard{}, errs.ErrMemberNotFound
	}
	member, err := s.repo.GetMember(ctx, id.MemberID)
	if err != nil {
		return model.MemberDashboard{}, err
	}
	now := s.now()
	d := model.MemberDashboard{Tab: tab, Member: member}
	loans, err := s.repo.ListLoans(ctx, model.LoanQuery{Filter: model.LoanFilterAll, MemberID: id.MemberID, Now: now})
	if err != nil {
		return model.MemberDashboard{}, err
	}
	for _, l := range loans {
		if l.Status == model.LoanBorrowed {
			d.ActiveLoans++
			if l.IsOverdue(now) {
				d.OverdueLoans++
			}
		}
	}
	switch tab {
	case model.TabLoans:
		d.Loans = loans
	default:
		d.Tab = model.TabAvailable
		d.AvailableBooks, err = s.repo.ListBooks(ctx, model.BookFilter{
			Availability: model.AvailabilityAvailable,
			Sort:         model.SortTitle,
		})
		if err != nil {
			return model.MemberDashboard{}, err
		}
	}
	return d, nil
}
