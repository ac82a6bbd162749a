package events

import (
	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

// Events are published after the write they describe has committed.

type EmployeeCreatedEvent struct {
	Result employee.Employee
}

type EmployeeUpdatedEvent struct {
	Before employee.Employee
	After  employee.Employee
}

// ManagerChangedEvent accompanies an update or reassignment that moved the
// employee under a different manager. Nil ids mean "no manager".
type ManagerChangedEvent struct {
	EmployeeID   int64
	OldManagerID *int64
	NewManagerID *int64
}

type EmployeeDeletedEvent struct {
	Result employee.Employee
}

type DepartmentChangedEvent struct {
	Op     string // created, updated, deleted
	Result department.Department
}

type PositionChangedEvent struct {
	Op     string
	Result position.Position
}

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)
