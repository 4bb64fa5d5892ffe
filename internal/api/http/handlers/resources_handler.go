package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/re-allocator/internal/api/dto"
	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/service"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// ResourcesHandler manages resource ledger endpoints.
type ResourcesHandler struct {
	resources *service.ResourceService
}

// NewResourcesHandler constructs handler.
func NewResourcesHandler(resourceService *service.ResourceService) *ResourcesHandler {
	return &ResourcesHandler{resources: resourceService}
}

// Create POST /resources.
func (h *ResourcesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Description == "" || req.Type == "" || req.DepartmentID == "" {
		return apperrors.NewValidationError("name, description, type, department_id required", nil)
	}

	resource, err := h.resources.CreateResource(c.Context(), service.ResourceCreateInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		DepartmentID: req.DepartmentID,
		Quantity:     req.Quantity,
		Available:    req.Available,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    resourceResponse(resource),
		"message": "resource created successfully",
	})
}

// Update PATCH /resources/:resourceId.
func (h *ResourcesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	resource, err := h.resources.UpdateResource(c.Context(), c.Params("resourceId"), service.ResourceUpdateInput{
		Quantity:  req.Quantity,
		Available: req.Available,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    resourceResponse(resource),
		"message": "resource updated successfully",
	})
}

// Get GET /resources/:resourceId.
func (h *ResourcesHandler) Get(c *fiber.Ctx) error {
	resource, err := h.resources.GetResource(c.Context(), c.Params("resourceId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": resourceResponse(resource)})
}

// List GET /resources.
func (h *ResourcesHandler) List(c *fiber.Ctx) error {
	resources, err := h.resources.ListResources(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": resourceResponses(resources)})
}

// ListByDepartment GET /departments/:departmentId/resources.
func (h *ResourcesHandler) ListByDepartment(c *fiber.Ctx) error {
	resources, err := h.resources.ListResourcesByDepartment(c.Context(), c.Params("departmentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": resourceResponses(resources)})
}

func resourceResponse(resource *domain.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:           resource.ID,
		Name:         resource.Name,
		Description:  resource.Description,
		Type:         resource.Type,
		DepartmentID: resource.DepartmentID,
		Quantity:     resource.Quantity,
		Available:    resource.Available,
		CreatedAt:    resource.CreatedAt,
	}
}

func resourceResponses(resources []domain.Resource) []dto.ResourceResponse {
	items := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		items = append(items, resourceResponse(&resources[i]))
	}
	return items
}
