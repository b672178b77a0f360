package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateUserDTO struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,user_role"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserDTO struct {
	Name     null.String `json:"name" validate:"omitempty,max=200"`
	Email    null.String `json:"email" validate:"omitempty,email"`
	Role     null.String `json:"role" validate:"omitempty,user_role"`
	Password null.String `json:"password" validate:"omitempty,min=8"`
}

type UserDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
