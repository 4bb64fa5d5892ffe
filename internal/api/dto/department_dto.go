package dto

import "time"

// CreateDepartmentRequest payload for a new department.
type CreateDepartmentRequest struct {
	Name  string `json:"name"`
	HODID string `json:"hod_id"`
}

// DepartmentResponse is the wire shape of a department.
type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HODID     string    `json:"hod_id"`
	CreatedAt time.Time `json:"created_at"`
}
