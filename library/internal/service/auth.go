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

const librarianDisplayName = "Administrator"

// Authenticate checks the credentials and returns the caller identity.
// Unknown email and wrong password are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, email, password string) (auth.Identity, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return auth.Identity{}, errs.ErrInvalidCredentials
		}
		return auth.Identity{}, err
	}
	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		return auth.Identity{}, errs.ErrInvalidCredentials
	}
	role, err := auth.ParseRole(user.Role)
	if err != nil {
		return auth.Identity{}, errors.Wrapf(err, "user %s", user.ID)
	}

	id := auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   role,
	}
	if role == auth.RoleLibrarian {
		id.Name = librarianDisplayName
	}
	if user.MemberID != nil {
		id.MemberID = *user.MemberID
	}
	return id, nil
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	id, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return model.LoginResponse{}, err
	}
	token, expiresAt, err := s.tokens.Issue(id)
	if err != nil {
		return model.LoginResponse{}, err
	}
	return model.LoginResponse{
		Token:     token,
		Email:     id.Email,
		Name:      id.Name,
		UserType:  id.Role.String(),
		Roles:     id.Roles(),
		ExpiresAt: expiresAt,
	}, nil
}

// CreateUser adds a login. A member login is linked to an existing member.
func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error) {
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return uuid.Nil, errs.Validation(err.Error())
	}
	if role == auth.RoleMember && req.MemberID == uuid.Nil {
		return uuid.Nil, errs.Validation("member login needs a member id")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return uuid.Nil, errs.Validation(err.Error())
	}
	user := model.User{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         role.String(),
		CreatedAt:    s.now(),
	}
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if role == auth.RoleMember {
			if _, err := tx.GetMember(ctx, req.MemberID); err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					return errs.ErrMemberNotFound
				}
				return err
			}
			return tx.LinkMemberUser(ctx, req.MemberID, user.ID)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
