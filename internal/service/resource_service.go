package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/repository"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// ResourceService manages the resource ledger.
type ResourceService struct {
	resources    repository.ResourceRepository
	departments  repository.DepartmentRepository
	availability *AvailabilityService
}

// ResourceCreateInput describes a new ledger entry.
type ResourceCreateInput struct {
	Name         string
	Description  string
	Type         string
	DepartmentID string
	Quantity     int
	Available    bool
}

// ResourceUpdateInput carries the mutable ledger fields.
type ResourceUpdateInput struct {
	Quantity  int
	Available bool
}

// NewResourceService constructs the service.
func NewResourceService(resources repository.ResourceRepository, departments repository.DepartmentRepository, availability *AvailabilityService) *ResourceService {
	return &ResourceService{resources: resources, departments: departments, availability: availability}
}

// CreateResource registers a resource under a department. Names are unique
// within a department.
func (s *ResourceService) CreateResource(ctx context.Context, input ResourceCreateInput) (*domain.Resource, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	if _, err := s.departments.GetByID(ctx, input.DepartmentID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("department", nil)
		}
		return nil, err
	}
	if _, err := s.resources.GetByNameInDepartment(ctx, input.Name, input.DepartmentID); err == nil {
		return nil, apperrors.NewConflict("resource already exists with this name in this department", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	resource := &domain.Resource{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Type:         input.Type,
		DepartmentID: input.DepartmentID,
		Quantity:     input.Quantity,
		Available:    input.Available,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// UpdateResource changes quantity and the availability kill-switch.
func (s *ResourceService) UpdateResource(ctx context.Context, id string, input ResourceUpdateInput) (*domain.Resource, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	resource, err := s.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	resource.Quantity = input.Quantity
	resource.Available = input.Available
	if err := s.resources.Update(ctx, resource); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("resource", nil)
		}
		return nil, err
	}
	// The new quantity changes every slot's baseline; cached grids are stale.
	if s.availability != nil {
		s.availability.InvalidateResource(ctx, resource.ID)
	}
	return resource, nil
}

// GetResource fetches a resource by id.
func (s *ResourceService) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("resource", nil)
		}
		return nil, err
	}
	return resource, nil
}

// ListResources returns every ledger entry.
func (s *ResourceService) ListResources(ctx context.Context) ([]domain.Resource, error) {
	return s.resources.List(ctx)
}

// ListResourcesByDepartment returns a department's ledger entries.
func (s *ResourceService) ListResourcesByDepartment(ctx context.Context, departmentID string) ([]domain.Resource, error) {
	return s.resources.ListByDepartment(ctx, departmentID)
}
