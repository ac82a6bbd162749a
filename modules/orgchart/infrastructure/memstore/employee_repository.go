package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

type EmployeeRepository struct {
	s *Store
}

func ownManager(e employee.Employee) employee.Employee {
	if e.ManagerID != nil {
		id := *e.ManagerID
		e.ManagerID = &id
	}
	return e
}

// hydrate fills the denormalized department and position columns of a copy.
func (st *state) hydrate(e employee.Employee) employee.Employee {
	e = ownManager(e)
	e.DepartmentName = ""
	e.PositionName = ""
	e.PositionLevel = 0
	if d, ok := st.departments[e.DepartmentID]; ok && d.DeletedAt == nil {
		e.DepartmentName = d.Name
	}
	if p, ok := st.positions[e.PositionID]; ok && p.DeletedAt == nil {
		e.PositionName = p.Name
		e.PositionLevel = p.Level
	}
	return e
}

func (st *state) activeEmployee(id int64) (employee.Employee, bool) {
	e, ok := st.employees[id]
	if !ok || e.DeletedAt != nil {
		return employee.Employee{}, false
	}
	return e, true
}

func (st *state) selectEmployees(match func(employee.Employee) bool) []employee.Employee {
	out := make([]employee.Employee, 0)
	for _, e := range st.employees {
		if e.DeletedAt == nil && match(e) {
			out = append(out, st.hydrate(e))
		}
	}
	slices.SortFunc(out, func(a, b employee.Employee) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func notFound(id int64) error {
	return fmt.Errorf("employee %d: %w", id, employee.ErrNotFound)
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	var out employee.Employee
	err := r.s.read(ctx, func(st *state) error {
		e, ok := st.activeEmployee(id)
		if !ok {
			return notFound(id)
		}
		out = st.hydrate(e)
		return nil
	})
	return out, err
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	email = employee.NormalizeEmail(email)
	var out employee.Employee
	err := r.s.read(ctx, func(st *state) error {
		found := st.selectEmployees(func(e employee.Employee) bool { return e.Email == email })
		if len(found) == 0 {
			return fmt.Errorf("employee %q: %w", email, employee.ErrNotFound)
		}
		out = found[0]
		return nil
	})
	return out, err
}

func (r *EmployeeRepository) GetAll(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	err := r.s.read(ctx, func(st *state) error {
		out = st.selectEmployees(func(employee.Employee) bool { return true })
		return nil
	})
	return out, err
}

func (r *EmployeeRepository) GetSubordinates(ctx context.Context, managerID int64) ([]employee.Employee, error) {
	var out []employee.Employee
	err := r.s.read(ctx, func(st *state) error {
		out = st.selectEmployees(func(e employee.Employee) bool { return e.HasManager(managerID) })
		return nil
	})
	return out, err
}

func (r *EmployeeRepository) GetByDepartment(ctx context.Context, departmentID int64) ([]employee.Employee, error) {
	var out []employee.Employee
	err := r.s.read(ctx, func(st *state) error {
		out = st.selectEmployees(func(e employee.Employee) bool { return e.DepartmentID == departmentID })
		return nil
	})
	return out, err
}

func (r *EmployeeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.employees {
			if e.DeletedAt == nil {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (st *state) emailTaken(email string, selfID int64) bool {
	for _, e := range st.employees {
		if e.DeletedAt == nil && e.ID != selfID && e.Email == email {
			return true
		}
	}
	return false
}

func (r *EmployeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	err := r.s.write(ctx, func(st *state) error {
		e.Email = employee.NormalizeEmail(e.Email)
		if st.emailTaken(e.Email, 0) {
			return employee.ErrEmailConflict
		}
		e.ID = st.nextID()
		e.CreatedAt = r.s.now()
		e.UpdatedAt = nil
		e.DeletedAt = nil
		st.employees[e.ID] = ownManager(e)
		e = st.hydrate(e)
		return nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e employee.Employee) error {
	return r.s.write(ctx, func(st *state) error {
		existing, ok := st.activeEmployee(e.ID)
		if !ok {
			return notFound(e.ID)
		}
		e.Email = employee.NormalizeEmail(e.Email)
		if st.emailTaken(e.Email, e.ID) {
			return employee.ErrEmailConflict
		}
		now := r.s.now()
		e.CreatedAt = existing.CreatedAt
		e.UpdatedAt = &now
		e.DeletedAt = nil
		st.employees[e.ID] = ownManager(e)
		return nil
	})
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(st *state) error {
		e, ok := st.activeEmployee(id)
		if !ok {
			return notFound(id)
		}
		now := r.s.now()
		e.DeletedAt = &now
		st.employees[id] = e
		return nil
	})
}
