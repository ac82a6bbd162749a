package snapshotfile

import (
	"context"
	"fmt"
	"slices"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

type DepartmentCreator interface {
	Create(ctx context.Context, dto *department.CreateDTO) (department.Department, error)
}

type PositionCreator interface {
	Create(ctx context.Context, dto *position.CreateDTO) (position.Position, error)
}

type EmployeeCreator interface {
	Create(ctx context.Context, dto *employee.CreateDTO) (employee.Employee, error)
}

type Targets struct {
	Departments DepartmentCreator
	Positions   PositionCreator
	Employees   EmployeeCreator
}

// IDMap maps file ids to the ids assigned by the target store.
type IDMap struct {
	Departments map[int64]int64
	Positions   map[int64]int64
	Employees   map[int64]int64
}

// Seed creates the file contents through the given services. Managers are
// created before their reports; employees whose manager chain never reaches
// a root (cycles, unknown managers) are refused before anything is written.
func Seed(ctx context.Context, f File, to Targets) (IDMap, error) {
	order, err := managerOrder(f.Employees)
	if err != nil {
		return IDMap{}, err
	}
	ids := IDMap{
		Departments: make(map[int64]int64, len(f.Departments)),
		Positions:   make(map[int64]int64, len(f.Positions)),
		Employees:   make(map[int64]int64, len(f.Employees)),
	}

	for _, d := range f.Departments {
		active := !d.Inactive
		created, err := to.Departments.Create(ctx, &department.CreateDTO{Name: d.Name, Code: d.Code, IsActive: &active})
		if err != nil {
			return ids, fmt.Errorf("department %d: %w", d.ID, err)
		}
		ids.Departments[d.ID] = created.ID
	}
	for _, p := range f.Positions {
		active := !p.Inactive
		created, err := to.Positions.Create(ctx, &position.CreateDTO{Name: p.Name, Level: p.Level, IsActive: &active})
		if err != nil {
			return ids, fmt.Errorf("position %d: %w", p.ID, err)
		}
		ids.Positions[p.ID] = created.ID
	}
	for _, e := range order {
		dto := &employee.CreateDTO{
			Name:         e.Name,
			Email:        e.Email,
			DepartmentID: mapped(ids.Departments, e.DepartmentID),
			PositionID:   mapped(ids.Positions, e.PositionID),
			HireDate:     e.hireDate(),
		}
		if e.ManagerID != nil {
			managerID := ids.Employees[*e.ManagerID]
			dto.ManagerID = &managerID
		}
		created, err := to.Employees.Create(ctx, dto)
		if err != nil {
			return ids, fmt.Errorf("employee %d: %w", e.ID, err)
		}
		ids.Employees[e.ID] = created.ID
	}
	return ids, nil
}

// mapped resolves a file reference, passing unknown ids through so the
// service reports them as missing.
func mapped(m map[int64]int64, id int64) int64 {
	if v, ok := m[id]; ok {
		return v
	}
	return id
}

// managerOrder lists employees breadth-first from the roots, file order
// among siblings.
func managerOrder(employees []Employee) ([]Employee, error) {
	children := make(map[int64][]Employee, len(employees))
	var queue []Employee
	for _, e := range employees {
		if e.ManagerID == nil {
			queue = append(queue, e)
			continue
		}
		children[*e.ManagerID] = append(children[*e.ManagerID], e)
	}

	out := make([]Employee, 0, len(employees))
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		out = append(out, e)
		queue = append(queue, children[e.ID]...)
	}

	if len(out) != len(employees) {
		placed := make(map[int64]struct{}, len(out))
		for _, e := range out {
			placed[e.ID] = struct{}{}
		}
		var stuck []int64
		for _, e := range employees {
			if _, ok := placed[e.ID]; !ok {
				stuck = append(stuck, e.ID)
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("employees %v do not reach a root through their managers", stuck)
	}
	return out, nil
}
