package events

import (
	"time"

	"github.com/spec-kit/re-allocator/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBookingCreated   EventType = "booking_created"
	EventBookingApproved  EventType = "booking_approved"
	EventBookingRejected  EventType = "booking_rejected"
	EventBookingCompleted EventType = "booking_completed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BookingCreatedPayload payload.
type BookingCreatedPayload struct {
	ResourceID        string    `json:"resource_id"`
	DepartmentID      string    `json:"department_id"`
	RequestedQuantity int       `json:"requested_quantity"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// BookingDecisionPayload payload for approve/reject/complete.
type BookingDecisionPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	HODID     string              `json:"hod_id,omitempty"`
}
