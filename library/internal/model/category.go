package model

import (
	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"categoryId" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
}

type CategorySummary struct {
	Category
	BookCount int `json:"bookCount" db:"book_count"`
}

type CategoryDetail struct {
	Category
	Books []Book `json:"books"`
}

type CategoryRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description" validate:"max=500"`
}
