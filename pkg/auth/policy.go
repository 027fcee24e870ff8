package auth

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
)

type Action uint8

const (
	ViewCatalog Action = iota + 1
	ManageCatalog
	ManageMembers
	ManageLoans
	ViewDashboard
	ViewOwnLoans
	SubmitReview
	EditReview
	DeleteReview
)

// Resource describes what an action targets. OwnerMemberID is set for member-owned rows
// and left zero for actions on the caller's own data.
type Resource struct {
	OwnerMemberID uuid.UUID
}

// Authorize is the single access policy of the application.
func Authorize(id Identity, act Action, res Resource) error {
	if act == ViewCatalog {
		return nil
	}
	if !id.Authenticated() {
		return ErrUnauthenticated
	}

	switch id.Role {
	case RoleLibrarian:
		if act == SubmitReview {
			return ErrForbidden
		}
		return nil
	case RoleMember:
		switch act {
		case ViewOwnLoans:
			if res.OwnerMemberID == uuid.Nil || res.OwnerMemberID == id.MemberID {
				return nil
			}
			return ErrForbidden
		case SubmitReview:
			if id.MemberID == uuid.Nil {
				return ErrForbidden
			}
			return nil
		case EditReview, DeleteReview:
			if id.MemberID != uuid.Nil && res.OwnerMemberID == id.MemberID {
				return nil
			}
			return ErrForbidden
		}
	}
	return ErrForbidden
}
