package model

import (
	"time"

	"github.com/google/uuid"
)

type Member struct {
	ID             uuid.UUID  `json:"memberId" db:"id"`
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	Phone          *string    `json:"phone" db:"phone"`
	Address        *string    `json:"address" db:"address"`
	DateOfBirth    *time.Time `json:"dateOfBirth" db:"date_of_birth"`
	CardNumber     *string    `json:"cardNumber" db:"card_number"`
	MembershipDate time.Time  `json:"membershipDate" db:"membership_date"`
	IsActive       bool       `json:"isActive" db:"is_active"`
	UserID         *uuid.UUID `json:"userId,omitempty" db:"user_id"`
}

type MemberSummary struct {
	Member
	ActiveLoans int `json:"activeLoans" db:"active_loans"`
}

type MemberDetail struct {
	Member
	Loans   []LoanView   `json:"loans"`
	Reviews []ReviewView `json:"reviews"`
}

type MemberRequest struct {
	Name        string     `json:"name" form:"name" validate:"required,max=100"`
	Email       string     `json:"email" form:"email" validate:"required,email,max=150"`
	Phone       string     `json:"phone" form:"phone" validate:"max=15"`
	Address     string     `json:"address" form:"address" validate:"max=200"`
	DateOfBirth *time.Time `json:"dateOfBirth" form:"-"`
	CardNumber  string     `json:"cardNumber" form:"cardNumber" validate:"max=20"`
	IsActive    *bool      `json:"isActive" form:"-"`
	// Password creates a linked member login when set on create.
	Password string `json:"password,omitempty" form:"password" validate:"omitempty,min=6,max=72"`
}
