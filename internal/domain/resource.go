package domain

import "time"

// Resource is a bookable item with finite concurrent capacity. Quantity is
// the total fleet size (e.g. five identical projectors), never a depleting
// counter: approvals consume capacity only through the per-slot availability
// computation. Available is a manual kill-switch independent of booking load.
type Resource struct {
	ID           string
	Name         string
	Description  string
	Type         string
	DepartmentID string
	Quantity     int
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
