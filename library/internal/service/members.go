package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/auth"
)

func (s *Service) ListMembers(ctx context.Context, id auth.Identity, search string) ([]model.MemberSummary, error) {
	if err := auth.Authorize(id, auth.ManageMembers, auth.Resource{}); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, strings.TrimSpace(search))
}

func (s *Service) GetMember(ctx context.Context, id auth.Identity, memberID uuid.UUID) (model.MemberDetail, error) {
	if err := auth.Authorize(id, auth.ManageMembers, auth.Resource{}); err != nil {
		return model.MemberDetail{}, err
	}
	m, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return model.MemberDetail{}, err
	}
	loans, err := s.repo.ListLoans(ctx, model.LoanQuery{Filter: model.LoanFilterAll, MemberID: memberID, Now: s.now()})
	if err != nil {
		return model.MemberDetail{}, err
	}
	reviews, err := s.repo.MemberReviews(ctx, memberID)
	if err != nil {
		return model.MemberDetail{}, err
	}
	return model.MemberDetail{Member: m, Loans: loans, Reviews: reviews}, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func memberFromRequest(m model.Member, req model.MemberRequest) model.Member {
	m.Name = strings.TrimSpace(req.Name)
	m.Email = strings.TrimSpace(req.Email)
	m.Phone = optional(req.Phone)
	m.Address = optional(req.Address)
	m.CardNumber = optional(req.CardNumber)
	m.DateOfBirth = req.DateOfBirth
	return m
}

// CreateMember adds a member. A password also creates the member's login.
func (s *Service) CreateMember(ctx context.Context, id auth.Identity, req model.MemberRequest) (model.Member, error) {
	if err := auth.Authorize(id, auth.ManageMembers, auth.Resource{}); err != nil {
		return model.Member{}, err
	}
	now := s.now()
	m := memberFromRequest(model.Member{
		ID:             uuid.New(),
		MembershipDate: now,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}, req)

	var user *model.User
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return model.Member{}, errs.Validation(err.Error())
		}
		user = &model.User{
			ID:           uuid.New(),
			Email:        m.Email,
			PasswordHash: hash,
			Name:         m.Name,
			Role:         auth.RoleMember.String(),
			CreatedAt:    now,
		}
		m.UserID = &user.ID
	}

	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		if user != nil {
			if err := tx.CreateUser(ctx, *user); err != nil {
				return err
			}
		}
		return tx.CreateMember(ctx, m)
	})
	if err != nil {
		return model.Member{}, err
	}
	return m, nil
}

// UpdateMember saves the profile. Deactivating goes through the same active loan guard as ToggleMember.
func (s *Service) UpdateMember(ctx context.Context, id auth.Identity, memberID uuid.UUID, req model.MemberRequest) error {
	if err := auth.Authorize(id, auth.ManageMembers, auth.Resource{}); err != nil {
		return err
	}
	return s.repo.InTx(ctx, func(tx repository.Repository) error {
		current, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		m := memberFromRequest(current, req)
		if req.IsActive != nil {
			if current.IsActive && !*req.IsActive {
				if err := guardActiveLoans(ctx, tx, memberID); err != nil {
					return err
				}
			}
			m.IsActive = *req.IsActive
		}
		return tx.UpdateMember(ctx, m)
	})
}

// ToggleMember flips the active flag and returns the new value.
func (s *Service) ToggleMember(ctx context.Context, id auth.Identity, memberID uuid.UUID) (bool, error) {
	if err := auth.Authorize(id, auth.ManageMembers, auth.Resource{}); err != nil {
		return false, err
	}
	var active bool
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		m, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if m.IsActive {
			if err := guardActiveLoans(ctx, tx, memberID); err != nil {
				return err
			}
		}
		active = !m.IsActive
		return tx.SetMemberActive(ctx, memberID, active)
	})
	if err != nil {
		return false, err
	}
	return active, nil
}

// DeleteMember removes the member with reviews, loans and the linked login.
func (s *Service) DeleteMember(ctx context.Context, id auth.Identity, memberID uuid.UUID) error {
	if err := auth.Authorize(id, auth.ManageMembers, auth.Resource{}); err != nil {
		return err
	}
	return s.repo.InTx(ctx, func(tx repository.Repository) error {
		m, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if err := guardActiveLoans(ctx, tx, memberID); err != nil {
			return err
		}
		if err := tx.DeleteMember(ctx, memberID); err != nil {
			return err
		}
		if m.UserID != nil {
			return tx.DeleteUser(ctx, *m.UserID)
		}
		return nil
	})
}

func guardActiveLoans(ctx context.Context, tx repository.Repository, memberID uuid.UUID) error {
	n, err := tx.CountActiveLoans(ctx, memberID)
	if err != nil {
		return err
	}
	if n > 0 {
		return &errs.ActiveLoansError{Count: n}
	}
	return nil
}
