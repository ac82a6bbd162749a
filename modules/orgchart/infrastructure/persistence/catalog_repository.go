package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/pkg/composables"
)

const (
	departmentFindQuery   = `SELECT id, name, code, is_active, created_at, updated_at FROM orgchart_departments WHERE deleted_at IS NULL`
	departmentInsertQuery = `INSERT INTO orgchart_departments (name, code, is_active) VALUES ($1, $2, $3) RETURNING id, created_at`
	departmentUpdateQuery = `UPDATE orgchart_departments SET name = $2, code = $3, is_active = $4, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	departmentDeleteQuery = `UPDATE orgchart_departments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	departmentUsageQuery  = `SELECT COUNT(*) FROM orgchart_employees WHERE department_id = $1 AND deleted_at IS NULL`

	positionFindQuery   = `SELECT id, name, level, is_active, created_at, updated_at FROM orgchart_positions WHERE deleted_at IS NULL`
	positionInsertQuery = `INSERT INTO orgchart_positions (name, level, is_active) VALUES ($1, $2, $3) RETURNING id, created_at`
	positionUpdateQuery = `UPDATE orgchart_positions SET name = $2, level = $3, is_active = $4, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	positionDeleteQuery = `UPDATE orgchart_positions SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	positionUsageQuery  = `SELECT COUNT(*) FROM orgchart_employees WHERE position_id = $1 AND deleted_at IS NULL`
)

type DepartmentRepository struct{}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{}
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (department.Department, error) {
	found, err := r.query(ctx, departmentFindQuery+" AND id = $1", id)
	if err != nil {
		return department.Department{}, errors.Wrapf(err, "get department %d", id)
	}
	if len(found) == 0 {
		return department.Department{}, errors.Wrapf(department.ErrNotFound, "department %d", id)
	}
	return found[0], nil
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]department.Department, error) {
	out, err := r.query(ctx, departmentFindQuery+" ORDER BY name, id")
	return out, errors.Wrap(err, "list departments")
}

func (r *DepartmentRepository) Create(ctx context.Context, d department.Department) (department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return department.Department{}, err
	}
	if err := tx.QueryRow(ctx, departmentInsertQuery, d.Name, d.Code, d.IsActive).Scan(&d.ID, &d.CreatedAt); err != nil {
		return department.Department{}, errors.Wrap(err, "insert department")
	}
	return d, nil
}

func (r *DepartmentRepository) Update(ctx context.Context, d department.Department) error {
	return execOne(ctx, department.ErrNotFound, d.ID, departmentUpdateQuery, d.ID, d.Name, d.Code, d.IsActive)
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, department.ErrNotFound, id, departmentDeleteQuery, id)
}

func (r *DepartmentRepository) CountEmployees(ctx context.Context, id int64) (int64, error) {
	return countRows(ctx, departmentUsageQuery, id)
}

func (r *DepartmentRepository) query(ctx context.Context, query string, args ...any) ([]department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (department.Department, error) {
		var d department.Department
		err := row.Scan(&d.ID, &d.Name, &d.Code, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
		return d, err
	})
}

type PositionRepository struct{}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{}
}

func (r *PositionRepository) GetByID(ctx context.Context, id int64) (position.Position, error) {
	found, err := r.query(ctx, positionFindQuery+" AND id = $1", id)
	if err != nil {
		return position.Position{}, errors.Wrapf(err, "get position %d", id)
	}
	if len(found) == 0 {
		return position.Position{}, errors.Wrapf(position.ErrNotFound, "position %d", id)
	}
	return found[0], nil
}

func (r *PositionRepository) GetAll(ctx context.Context) ([]position.Position, error) {
	out, err := r.query(ctx, positionFindQuery+" ORDER BY level DESC, name, id")
	return out, errors.Wrap(err, "list positions")
}

func (r *PositionRepository) Create(ctx context.Context, p position.Position) (position.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return position.Position{}, err
	}
	if err := tx.QueryRow(ctx, positionInsertQuery, p.Name, int16(p.Level), p.IsActive).Scan(&p.ID, &p.CreatedAt); err != nil {
		return position.Position{}, errors.Wrap(err, "insert position")
	}
	return p, nil
}

func (r *PositionRepository) Update(ctx context.Context, p position.Position) error {
	return execOne(ctx, position.ErrNotFound, p.ID, positionUpdateQuery, p.ID, p.Name, int16(p.Level), p.IsActive)
}

func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, position.ErrNotFound, id, positionDeleteQuery, id)
}

func (r *PositionRepository) CountEmployees(ctx context.Context, id int64) (int64, error) {
	return countRows(ctx, positionUsageQuery, id)
}

func (r *PositionRepository) query(ctx context.Context, query string, args ...any) ([]position.Position, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (position.Position, error) {
		var (
			p     position.Position
			level int16
		)
		err := row.Scan(&p.ID, &p.Name, &level, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		p.Level = position.Level(level)
		return p, err
	})
}

// execOne runs a single-row write and reports notFound when nothing matched.
func execOne(ctx context.Context, notFound error, id int64, query string, args ...any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "write %d", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(notFound, "id %d", id)
	}
	return nil
}

func countRows(ctx context.Context, query string, args ...any) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count rows")
	}
	return n, nil
}
