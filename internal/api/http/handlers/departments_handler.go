package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/re-allocator/internal/api/dto"
	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/service"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// DepartmentsHandler manages department endpoints.
type DepartmentsHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departmentService *service.DepartmentService) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departmentService}
}

// Create POST /departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.HODID == "" {
		return apperrors.NewValidationError("name and hod_id required", nil)
	}

	department, err := h.departments.CreateDepartment(c.Context(), req.Name, req.HODID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    departmentResponse(department),
		"message": "department created successfully",
	})
}

// Get GET /departments/:departmentId.
func (h *DepartmentsHandler) Get(c *fiber.Ctx) error {
	department, err := h.departments.GetDepartment(c.Context(), c.Params("departmentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": departmentResponse(department)})
}

// List GET /departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	departments, err := h.departments.ListDepartments(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(departments))
	for i := range departments {
		items = append(items, departmentResponse(&departments[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func departmentResponse(department *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:        department.ID,
		Name:      department.Name,
		HODID:     department.HODID,
		CreatedAt: department.CreatedAt,
	}
}
