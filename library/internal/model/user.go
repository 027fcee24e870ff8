package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	MemberID     *uuid.UUID `db:"member_id"`
	CreatedAt    time.Time  `db:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserType  string    `json:"userType"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CreateUserRequest struct {
	Email    string `validate:"required,email,max=150"`
	Password string `validate:"required,min=6,max=72"`
	Name     string `validate:"required,max=100"`
	Role     string `validate:"required,oneof=Librarian Member"`
	MemberID uuid.UUID
}
