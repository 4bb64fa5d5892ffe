package domain

import "time"

// Department represents an academic unit owning resources. Each department
// has exactly one head (HODID), who is the sole authorizer for bookings
// against the department's resources.
type Department struct {
	ID        string
	Name      string
	HODID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
