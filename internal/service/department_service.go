package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/repository"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// DepartmentService manages academic departments.
type DepartmentService struct {
	departments repository.DepartmentRepository
	users       repository.UserRepository
}

// NewDepartmentService constructs the service.
func NewDepartmentService(departments repository.DepartmentRepository, users repository.UserRepository) *DepartmentService {
	return &DepartmentService{departments: departments, users: users}
}

// CreateDepartment registers a department under a head. A head may lead at
// most one department.
func (s *DepartmentService) CreateDepartment(ctx context.Context, name, hodID string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	hod, err := s.users.GetByID(ctx, hodID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	if hod.Role != domain.RoleHOD {
		return nil, apperrors.NewValidationError("designated head must have the HOD role", nil)
	}
	if _, err := s.departments.GetByHOD(ctx, hodID); err == nil {
		return nil, apperrors.NewConflict("this head already leads a department", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	department := &domain.Department{Name: name, HODID: hodID}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

// GetDepartment fetches a department by id.
func (s *DepartmentService) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	department, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("department", nil)
		}
		return nil, err
	}
	return department, nil
}

// ListDepartments returns every department.
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.List(ctx)
}
