// Файл: internal/entities/user_entity.go
package entities

import (
	"inspection-system/pkg/types"
)

type User struct {
	ID    uint64 `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Role  string `json:"role" db:"role"`

	PasswordHash string `json:"-" db:"password_hash"`

	types.BaseEntity
}
