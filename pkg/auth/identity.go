package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated principal of a single request.
// The zero value is an anonymous caller.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Name     string
	Role     Role
	MemberID uuid.UUID
}

func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil && i.Role.Valid()
}

func (i Identity) IsLibrarian() bool { return i.Role == RoleLibrarian }

func (i Identity) IsMember() bool { return i.Role == RoleMember }

// Roles lists role names as exposed by the login response.
func (i Identity) Roles() []string {
	if !i.Role.Valid() {
		return []string{}
	}
	return []string{i.Role.String()}
}

type ctxKey struct{}

func SetAuthContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func GetAuthContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Authenticated()
}
