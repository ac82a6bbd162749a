package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/pkg/composables"
)

const (
	employeeFindQuery = `
        SELECT
            e.id,
            e.name,
            e.email,
            e.department_id,
            COALESCE(d.name, ''),
            e.position_id,
            COALESCE(p.name, ''),
            COALESCE(p.level, 0),
            e.manager_id,
            e.hire_date,
            e.created_at,
            e.updated_at
        FROM orgchart_employees e
        LEFT JOIN orgchart_departments d ON d.id = e.department_id AND d.deleted_at IS NULL
        LEFT JOIN orgchart_positions p ON p.id = e.position_id AND p.deleted_at IS NULL
        WHERE e.deleted_at IS NULL`

	employeeOrder = ` ORDER BY e.name, e.id`

	employeeCountQuery = `SELECT COUNT(*) FROM orgchart_employees WHERE deleted_at IS NULL`

	employeeInsertQuery = `
        INSERT INTO orgchart_employees (name, email, department_id, position_id, manager_id, hire_date)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	employeeUpdateQuery = `
        UPDATE orgchart_employees
        SET name = $2, email = $3, department_id = $4, position_id = $5, manager_id = $6, hire_date = $7, updated_at = NOW()
        WHERE id = $1 AND deleted_at IS NULL`

	employeeDeleteQuery = `UPDATE orgchart_employees SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
)

type EmployeeRepository struct{}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{}
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	found, err := r.queryEmployees(ctx, employeeFindQuery+" AND e.id = $1", id)
	if err != nil {
		return employee.Employee{}, errors.Wrapf(err, "get employee %d", id)
	}
	if len(found) == 0 {
		return employee.Employee{}, errors.Wrapf(employee.ErrNotFound, "employee %d", id)
	}
	return found[0], nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	found, err := r.queryEmployees(ctx, employeeFindQuery+" AND lower(e.email) = $1", employee.NormalizeEmail(email))
	if err != nil {
		return employee.Employee{}, errors.Wrap(err, "get employee by email")
	}
	if len(found) == 0 {
		return employee.Employee{}, errors.Wrapf(employee.ErrNotFound, "employee %q", email)
	}
	return found[0], nil
}

func (r *EmployeeRepository) GetAll(ctx context.Context) ([]employee.Employee, error) {
	out, err := r.queryEmployees(ctx, employeeFindQuery+employeeOrder)
	return out, errors.Wrap(err, "list employees")
}

func (r *EmployeeRepository) GetSubordinates(ctx context.Context, managerID int64) ([]employee.Employee, error) {
	out, err := r.queryEmployees(ctx, employeeFindQuery+" AND e.manager_id = $1"+employeeOrder, managerID)
	return out, errors.Wrapf(err, "list subordinates of %d", managerID)
}

func (r *EmployeeRepository) GetByDepartment(ctx context.Context, departmentID int64) ([]employee.Employee, error) {
	out, err := r.queryEmployees(ctx, employeeFindQuery+" AND e.department_id = $1"+employeeOrder, departmentID)
	return out, errors.Wrapf(err, "list employees of department %d", departmentID)
}

func (r *EmployeeRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRow(ctx, employeeCountQuery).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count employees")
	}
	return n, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	e.Email = employee.NormalizeEmail(e.Email)
	if err := tx.QueryRow(ctx, employeeInsertQuery,
		e.Name,
		e.Email,
		e.DepartmentID,
		e.PositionID,
		e.ManagerID,
		e.HireDate,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return employee.Employee{}, errors.Wrap(err, "insert employee")
	}
	return e, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e employee.Employee) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, employeeUpdateQuery,
		e.ID,
		e.Name,
		employee.NormalizeEmail(e.Email),
		e.DepartmentID,
		e.PositionID,
		e.ManagerID,
		e.HireDate,
	)
	if err != nil {
		return errors.Wrapf(err, "update employee %d", e.ID)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(employee.ErrNotFound, "employee %d", e.ID)
	}
	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, employeeDeleteQuery, id)
	if err != nil {
		return errors.Wrapf(err, "delete employee %d", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(employee.ErrNotFound, "employee %d", id)
	}
	return nil
}

func (r *EmployeeRepository) queryEmployees(ctx context.Context, query string, args ...any) ([]employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEmployee)
}

func scanEmployee(row pgx.CollectableRow) (employee.Employee, error) {
	var (
		e        employee.Employee
		level    int16
		hireDate time.Time
	)
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.DepartmentID,
		&e.DepartmentName,
		&e.PositionID,
		&e.PositionName,
		&level,
		&e.ManagerID,
		&hireDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return employee.Employee{}, err
	}
	e.PositionLevel = position.Level(level)
	e.HireDate = hireDate.UTC()
	return e, nil
}
