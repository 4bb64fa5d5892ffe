package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/re-allocator/internal/api/dto"
	"github.com/spec-kit/re-allocator/internal/auth"
	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/service"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// ApprovalsHandler exposes the HOD decision endpoints.
type ApprovalsHandler struct {
	bookings *service.BookingService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(bookings *service.BookingService) *ApprovalsHandler {
	return &ApprovalsHandler{bookings: bookings}
}

// Approve POST /approvals/approve/:ticketId.
func (h *ApprovalsHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.bookings.ApproveTicket(c.Context(), principal.User, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket),
		"message": "ticket approved successfully",
	})
}

// Reject POST /approvals/reject/:ticketId.
func (h *ApprovalsHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.bookings.RejectTicket(c.Context(), principal.User, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket),
		"message": "ticket rejected successfully",
	})
}

// Complete POST /approvals/complete/:ticketId.
func (h *ApprovalsHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.bookings.CompleteTicket(c.Context(), principal.User, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ticketResponse(ticket),
		"message": "ticket completed successfully",
	})
}

// ListMine GET /approvals returns the acting HOD's audit trail.
func (h *ApprovalsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	approvals, err := h.bookings.ListApprovalsByHOD(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		items = append(items, approvalResponse(approval))
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func approvalResponse(approval domain.Approval) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		ID:        approval.ID,
		TicketID:  approval.TicketID,
		HODID:     approval.HODID,
		Status:    approval.Status,
		CreatedAt: approval.CreatedAt,
	}
}
