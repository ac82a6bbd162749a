package employee

import (
	"strings"
	"time"
)

type CreateDTO struct {
	Name         string    `json:"name" validate:"required,max=200"`
	Email        string    `json:"email" validate:"required,email,max=255"`
	DepartmentID int64     `json:"department_id" validate:"gt=0"`
	PositionID   int64     `json:"position_id" validate:"gt=0"`
	HireDate     time.Time `json:"hire_date" validate:"required"`
	ManagerID    *int64    `json:"manager_id" validate:"omitempty,gt=0"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = NormalizeEmail(d.Email)
}

func (d *CreateDTO) ToEntity() Employee {
	return Employee{
		Name:         d.Name,
		Email:        d.Email,
		DepartmentID: d.DepartmentID,
		PositionID:   d.PositionID,
		HireDate:     d.HireDate.UTC(),
		ManagerID:    d.ManagerID,
	}
}

type UpdateDTO struct {
	Name         string    `json:"name" validate:"required,max=200"`
	Email        string    `json:"email" validate:"required,email,max=255"`
	DepartmentID int64     `json:"department_id" validate:"gt=0"`
	PositionID   int64     `json:"position_id" validate:"gt=0"`
	HireDate     time.Time `json:"hire_date" validate:"required"`
	ManagerID    *int64    `json:"manager_id" validate:"omitempty,gt=0"`
}

func (d *UpdateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = NormalizeEmail(d.Email)
}

// Apply copies the mutable fields onto an existing employee, keeping identity
// and audit columns intact.
func (d *UpdateDTO) Apply(e Employee) Employee {
	e.Name = d.Name
	e.Email = d.Email
	e.DepartmentID = d.DepartmentID
	e.PositionID = d.PositionID
	e.HireDate = d.HireDate.UTC()
	e.ManagerID = d.ManagerID
	return e
}
