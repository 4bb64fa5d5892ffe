package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/re-allocator/internal/api/dto"
	"github.com/spec-kit/re-allocator/internal/auth"
	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/service"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// TicketsHandler manages booking endpoints.
type TicketsHandler struct {
	bookings     *service.BookingService
	availability *service.AvailabilityService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(bookings *service.BookingService, availability *service.AvailabilityService) *TicketsHandler {
	return &TicketsHandler{bookings: bookings, availability: availability}
}

// CreateTicket POST /tickets/:resourceId.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" || req.RequestedQuantity == 0 || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return apperrors.NewValidationError("department_id, requested_quantity, start_time, end_time required", nil)
	}

	ticket, err := h.bookings.CreateTicket(c.Context(), principal.User.ID, service.BookingCreateInput{
		ResourceID:        c.Params("resourceId"),
		DepartmentID:      req.DepartmentID,
		RequestedQuantity: req.RequestedQuantity,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket),
		"message": "ticket created successfully",
	})
}

// GetTicket GET /tickets/:ticketId.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.bookings.GetTicket(c.Context(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.bookings.ListTickets(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ticketResponses(tickets)})
}

// ListTicketsByUser GET /users/:userId/tickets.
func (h *TicketsHandler) ListTicketsByUser(c *fiber.Ctx) error {
	tickets, err := h.bookings.ListTicketsByUser(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ticketResponses(tickets)})
}

// ListTicketsByHOD GET /hods/:hodId/tickets.
func (h *TicketsHandler) ListTicketsByHOD(c *fiber.Ctx) error {
	tickets, err := h.bookings.ListTicketsByHOD(c.Context(), c.Params("hodId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ticketResponses(tickets)})
}

// GetAvailability GET /availability/:resourceId/:date.
func (h *TicketsHandler) GetAvailability(c *fiber.Ctx) error {
	resourceID := c.Params("resourceId")
	date := c.Params("date")
	grid, err := h.availability.ComputeDaily(c.Context(), resourceID, date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.AvailabilityResponse{
			ResourceID:   resourceID,
			Date:         date,
			Availability: grid,
		},
	})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                ticket.ID,
		UserID:            ticket.UserID,
		ResourceID:        ticket.ResourceID,
		DepartmentID:      ticket.DepartmentID,
		RequestedQuantity: ticket.RequestedQuantity,
		StartTime:         ticket.StartTime,
		EndTime:           ticket.EndTime,
		Status:            ticket.Status,
		CreatedAt:         ticket.CreatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
