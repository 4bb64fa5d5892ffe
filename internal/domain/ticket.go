package domain

import "time"

// TicketStatus enumerates lifecycle states for booking tickets.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "PENDING"
	TicketStatusApproved  TicketStatus = "APPROVED"
	TicketStatusRejected  TicketStatus = "REJECTED"
	TicketStatusCompleted TicketStatus = "COMPLETED"
)

// Ticket is a booking request against a resource for a time interval and
// quantity. StartTime and EndTime are absolute instants; the interval is
// half-open [StartTime, EndTime).
type Ticket struct {
	ID                string
	UserID            string
	ResourceID        string
	DepartmentID      string
	RequestedQuantity int
	StartTime         time.Time
	EndTime           time.Time
	Status            TicketStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanTransition reports whether a ticket may move from its current status to
// next. PENDING leaves exactly once (approve or reject), APPROVED leaves
// exactly once (complete); there are no back-transitions.
func (t *Ticket) CanTransition(next TicketStatus) bool {
	switch t.Status {
	case TicketStatusPending:
		return next == TicketStatusApproved || next == TicketStatusRejected
	case TicketStatusApproved:
		return next == TicketStatusCompleted
	}
	return false
}
