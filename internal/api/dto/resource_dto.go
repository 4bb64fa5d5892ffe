package dto

import "time"

// CreateResourceRequest payload for a new ledger entry.
type CreateResourceRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	DepartmentID string `json:"department_id"`
	Quantity     int    `json:"quantity"`
	Available    bool   `json:"available"`
}

// UpdateResourceRequest payload for ledger mutations.
type UpdateResourceRequest struct {
	Quantity  int  `json:"quantity"`
	Available bool `json:"available"`
}

// ResourceResponse is the wire shape of a resource.
type ResourceResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	DepartmentID string    `json:"department_id"`
	Quantity     int       `json:"quantity"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
}
