package employee

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

var (
	ErrNotFound      = errors.New("employee not found")
	ErrEmailConflict = errors.New("employee email already exists")
)

// Employee is the denormalized read model: department and position display
// data are joined in by the store, the hierarchy code never joins them itself.
type Employee struct {
	ID             int64          `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Email          string         `json:"email" yaml:"email"`
	DepartmentID   int64          `json:"department_id" yaml:"department_id"`
	DepartmentName string         `json:"department_name" yaml:"-"`
	PositionID     int64          `json:"position_id" yaml:"position_id"`
	PositionName   string         `json:"position_name" yaml:"-"`
	PositionLevel  position.Level `json:"position_level" yaml:"-"`
	ManagerID      *int64         `json:"manager_id" yaml:"manager_id,omitempty"`
	HireDate       time.Time      `json:"hire_date" yaml:"hire_date"`
	CreatedAt      time.Time      `json:"created_at" yaml:"-"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty" yaml:"-"`
	DeletedAt      *time.Time     `json:"-" yaml:"-"`
}

func (e Employee) IsRoot() bool {
	return e.ManagerID == nil
}

func (e Employee) HasManager(id int64) bool {
	return e.ManagerID != nil && *e.ManagerID == id
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	GetAll(ctx context.Context) ([]Employee, error)
	GetSubordinates(ctx context.Context, managerID int64) ([]Employee, error)
	GetByDepartment(ctx context.Context, departmentID int64) ([]Employee, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, e Employee) error
	Delete(ctx context.Context, id int64) error
}
