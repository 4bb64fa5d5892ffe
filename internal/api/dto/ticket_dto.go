package dto

import (
	"time"

	"github.com/spec-kit/re-allocator/internal/domain"
)

// CreateTicketRequest payload for booking a resource.
type CreateTicketRequest struct {
	DepartmentID      string    `json:"department_id"`
	RequestedQuantity int       `json:"requested_quantity"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// TicketResponse is the wire shape of a booking ticket.
type TicketResponse struct {
	ID                string              `json:"id"`
	UserID            string              `json:"user_id"`
	ResourceID        string              `json:"resource_id"`
	DepartmentID      string              `json:"department_id"`
	RequestedQuantity int                 `json:"requested_quantity"`
	StartTime         time.Time           `json:"start_time"`
	EndTime           time.Time           `json:"end_time"`
	Status            domain.TicketStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
}

// AvailabilityResponse maps slot labels to remaining quantity.
type AvailabilityResponse struct {
	ResourceID   string         `json:"resource_id"`
	Date         string         `json:"date"`
	Availability map[string]int `json:"availability"`
}

// ApprovalResponse is the wire shape of an approval audit record.
type ApprovalResponse struct {
	ID        string              `json:"id"`
	TicketID  string              `json:"ticket_id"`
	HODID     string              `json:"hod_id"`
	Status    domain.TicketStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}
