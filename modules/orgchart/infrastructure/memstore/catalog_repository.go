package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

type DepartmentRepository struct {
	s *Store
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (department.Department, error) {
	var out department.Department
	err := r.s.read(ctx, func(st *state) error {
		d, ok := st.departments[id]
		if !ok || d.DeletedAt != nil {
			return fmt.Errorf("department %d: %w", id, department.ErrNotFound)
		}
		out = d
		return nil
	})
	return out, err
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]department.Department, error) {
	var out []department.Department
	err := r.s.read(ctx, func(st *state) error {
		for _, d := range st.departments {
			if d.DeletedAt == nil {
				out = append(out, d)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b department.Department) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

func (r *DepartmentRepository) Create(ctx context.Context, d department.Department) (department.Department, error) {
	err := r.s.write(ctx, func(st *state) error {
		d.ID = st.nextID()
		d.CreatedAt = r.s.now()
		d.UpdatedAt, d.DeletedAt = nil, nil
		st.departments[d.ID] = d
		return nil
	})
	return d, err
}

func (r *DepartmentRepository) Update(ctx context.Context, d department.Department) error {
	return r.s.write(ctx, func(st *state) error {
		existing, ok := st.departments[d.ID]
		if !ok || existing.DeletedAt != nil {
			return fmt.Errorf("department %d: %w", d.ID, department.ErrNotFound)
		}
		now := r.s.now()
		d.CreatedAt = existing.CreatedAt
		d.UpdatedAt = &now
		d.DeletedAt = nil
		st.departments[d.ID] = d
		return nil
	})
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(st *state) error {
		d, ok := st.departments[id]
		if !ok || d.DeletedAt != nil {
			return fmt.Errorf("department %d: %w", id, department.ErrNotFound)
		}
		now := r.s.now()
		d.DeletedAt = &now
		st.departments[id] = d
		return nil
	})
}

func (r *DepartmentRepository) CountEmployees(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.employees {
			if e.DeletedAt == nil && e.DepartmentID == id {
				n++
			}
		}
		return nil
	})
	return n, err
}

type PositionRepository struct {
	s *Store
}

func (r *PositionRepository) GetByID(ctx context.Context, id int64) (position.Position, error) {
	var out position.Position
	err := r.s.read(ctx, func(st *state) error {
		p, ok := st.positions[id]
		if !ok || p.DeletedAt != nil {
			return fmt.Errorf("position %d: %w", id, position.ErrNotFound)
		}
		out = p
		return nil
	})
	return out, err
}

func (r *PositionRepository) GetAll(ctx context.Context) ([]position.Position, error) {
	var out []position.Position
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.positions {
			if p.DeletedAt == nil {
				out = append(out, p)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b position.Position) int {
		if c := cmp.Compare(b.Level, a.Level); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

func (r *PositionRepository) Create(ctx context.Context, p position.Position) (position.Position, error) {
	err := r.s.write(ctx, func(st *state) error {
		p.ID = st.nextID()
		p.CreatedAt = r.s.now()
		p.UpdatedAt, p.DeletedAt = nil, nil
		st.positions[p.ID] = p
		return nil
	})
	return p, err
}

func (r *PositionRepository) Update(ctx context.Context, p position.Position) error {
	return r.s.write(ctx, func(st *state) error {
		existing, ok := st.positions[p.ID]
		if !ok || existing.DeletedAt != nil {
			return fmt.Errorf("position %d: %w", p.ID, position.ErrNotFound)
		}
		now := r.s.now()
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = &now
		p.DeletedAt = nil
		st.positions[p.ID] = p
		return nil
	})
}

func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, func(st *state) error {
		p, ok := st.positions[id]
		if !ok || p.DeletedAt != nil {
			return fmt.Errorf("position %d: %w", id, position.ErrNotFound)
		}
		now := r.s.now()
		p.DeletedAt = &now
		st.positions[id] = p
		return nil
	})
}

func (r *PositionRepository) CountEmployees(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.employees {
			if e.DeletedAt == nil && e.PositionID == id {
				n++
			}
		}
		return nil
	})
	return n, err
}
