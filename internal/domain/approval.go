package domain

import "time"

// Approval is the audit record written when a department head approves a
// ticket. Rows are append-only: never updated or deleted, and exactly one
// exists per APPROVED transition.
type Approval struct {
	ID        string
	TicketID  string
	HODID     string
	Status    TicketStatus
	CreatedAt time.Time
}
