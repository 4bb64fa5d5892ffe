package dto

import (
	"time"

	"github.com/spec-kit/re-allocator/internal/domain"
)

// CreateUserRequest payload for admin-provisioned accounts.
type CreateUserRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id,omitempty"`
}

// SignInRequest payload for login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the wire shape of an account, without credentials.
type UserResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
