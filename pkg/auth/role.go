package auth

import (
	"fmt"
	"strings"
)

type Role uint8

const (
	RoleLibrarian Role = iota + 1
	RoleMember
)

func (r Role) String() string {
	switch r {
	case RoleLibrarian:
		return "Librarian"
	case RoleMember:
		return "Member"
	default:
		return ""
	}
}

func (r Role) Valid() bool {
	return r == RoleLibrarian || r == RoleMember
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "librarian":
		return RoleLibrarian, nil
	case "member":
		return RoleMember, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	role, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
