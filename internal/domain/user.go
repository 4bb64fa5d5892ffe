package domain

import "time"

// Role is the closed set of principal roles in the college.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleHOD          Role = "HOD"
	RoleProfessor    Role = "PROFESSOR"
	RoleLabAssistant Role = "LAB_ASSISTANT"
	RoleStudent      Role = "STUDENT"
)

// ValidRole reports whether the given role belongs to the closed set.
func ValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleHOD, RoleProfessor, RoleLabAssistant, RoleStudent:
		return true
	}
	return false
}

// User is the domain model for anyone who signs in: students, professors,
// lab assistants, department heads and admins.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
