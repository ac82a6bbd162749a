package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/pkg/eventbus"
)

type EmployeeService struct {
	repo        employee.Repository
	departments department.Repository
	positions   position.Repository
	tx          Transactor
	publisher   eventbus.EventBus

	guardOpts     []hierarchy.GuardOption
	lockHierarchy bool
	now           func() time.Time
}

type EmployeeServiceOption func(*EmployeeService)

// WithGuardOptions configures the traversal used to vet manager assignments.
// Concurrency is ignored: the guard runs on the write transaction, which
// serves one query at a time.
func WithGuardOptions(opts ...hierarchy.GuardOption) EmployeeServiceOption {
	return func(s *EmployeeService) { s.guardOpts = append(s.guardOpts, opts...) }
}

// WithHierarchyLock toggles taking the hierarchy lock before manager-changing
// writes. Without it the cycle check and the write are not atomic.
func WithHierarchyLock(enabled bool) EmployeeServiceOption {
	return func(s *EmployeeService) { s.lockHierarchy = enabled }
}

func WithClock(now func() time.Time) EmployeeServiceOption {
	return func(s *EmployeeService) { s.now = now }
}

func NewEmployeeService(
	repo employee.Repository,
	departments department.Repository,
	positions position.Repository,
	tx Transactor,
	publisher eventbus.EventBus,
	opts ...EmployeeServiceOption,
) *EmployeeService {
	s := &EmployeeService{
		repo:          repo,
		departments:   departments,
		positions:     positions,
		tx:            tx,
		publisher:     publisher,
		lockHierarchy: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EmployeeService) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, toServiceError(err)
	}
	return e, nil
}

func (s *EmployeeService) GetAll(ctx context.Context) ([]employee.Employee, error) {
	out, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

func (s *EmployeeService) GetByDepartment(ctx context.Context, departmentID int64) ([]employee.Employee, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, toServiceError(err)
	}
	out, err := s.repo.GetByDepartment(ctx, departmentID)
	if err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

func (s *EmployeeService) GetSubordinates(ctx context.Context, managerID int64) ([]employee.Employee, error) {
	if _, err := s.repo.GetByID(ctx, managerID); err != nil {
		return nil, toServiceError(err)
	}
	out, err := s.repo.GetSubordinates(ctx, managerID)
	if err != nil {
		return nil, toServiceError(err)
	}
	return out, nil
}

func (s *EmployeeService) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, toServiceError(err)
	}
	return n, nil
}

func (s *EmployeeService) Create(ctx context.Context, dto *employee.CreateDTO) (employee.Employee, error) {
	const op = "create_employee"

	dto.Normalize()
	if err := validateDTO(dto); err != nil {
		return employee.Employee{}, err
	}
	if err := s.checkHireDate(dto.HireDate); err != nil {
		return employee.Employee{}, err
	}

	created, err := inTx(ctx, s.tx, func(txCtx context.Context) (employee.Employee, error) {
		if dto.ManagerID != nil {
			if err := s.lock(txCtx); err != nil {
				return employee.Employee{}, err
			}
		}
		if err := s.checkReferences(txCtx, 0, dto.Email, dto.DepartmentID, dto.PositionID, dto.ManagerID); err != nil {
			return employee.Employee{}, err
		}
		// A new employee has no subordinates, so any existing manager is acyclic.
		e, err := s.repo.Create(txCtx, dto.ToEntity())
		if err != nil {
			return employee.Employee{}, err
		}
		return s.repo.GetByID(txCtx, e.ID)
	})
	if err != nil {
		return employee.Employee{}, s.fail(ctx, op, err, nil)
	}

	s.publish(&events.EmployeeCreatedEvent{Result: created})
	return created, nil
}

func (s *EmployeeService) Update(ctx context.Context, id int64, dto *employee.UpdateDTO) (employee.Employee, error) {
	const op = "update_employee"

	dto.Normalize()
	if err := validateDTO(dto); err != nil {
		return employee.Employee{}, err
	}
	if err := s.checkHireDate(dto.HireDate); err != nil {
		return employee.Employee{}, err
	}

	var before employee.Employee
	updated, err := inTx(ctx, s.tx, func(txCtx context.Context) (employee.Employee, error) {
		if err := s.lock(txCtx); err != nil {
			return employee.Employee{}, err
		}
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		before = existing

		if err := s.checkReferences(txCtx, id, dto.Email, dto.DepartmentID, dto.PositionID, dto.ManagerID); err != nil {
			return employee.Employee{}, err
		}
		if !sameManager(existing.ManagerID, dto.ManagerID) {
			if err := s.guard(ctx).CheckAssignment(txCtx, id, dto.ManagerID); err != nil {
				return employee.Employee{}, err
			}
		}
		if err := s.repo.Update(txCtx, dto.Apply(existing)); err != nil {
			return employee.Employee{}, err
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		return employee.Employee{}, s.fail(ctx, op, err, logrus.Fields{"employee_id": id})
	}

	s.publish(&events.EmployeeUpdatedEvent{Before: before, After: updated})
	if !sameManager(before.ManagerID, updated.ManagerID) {
		s.publish(&events.ManagerChangedEvent{EmployeeID: id, OldManagerID: before.ManagerID, NewManagerID: updated.ManagerID})
	}
	return updated, nil
}

// ChangeManager moves an employee under managerID, or makes it a root when
// managerID is nil. The cycle check runs under the hierarchy lock in the same
// transaction as the write.
func (s *EmployeeService) ChangeManager(ctx context.Context, id int64, managerID *int64) (employee.Employee, error) {
	const op = "change_manager"

	if managerID != nil && *managerID <= 0 {
		return employee.Employee{}, invalidBody("manager_id must be positive", nil)
	}

	var before employee.Employee
	updated, err := inTx(ctx, s.tx, func(txCtx context.Context) (employee.Employee, error) {
		if err := s.lock(txCtx); err != nil {
			return employee.Employee{}, err
		}
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		before = existing
		if sameManager(existing.ManagerID, managerID) {
			return existing, nil
		}

		if err := s.checkManager(txCtx, managerID); err != nil {
			return employee.Employee{}, err
		}
		if err := s.guard(ctx).CheckAssignment(txCtx, id, managerID); err != nil {
			return employee.Employee{}, err
		}

		existing.ManagerID = managerID
		if err := s.repo.Update(txCtx, existing); err != nil {
			return employee.Employee{}, err
		}
		return s.repo.GetByID(txCtx, id)
	})
	if err != nil {
		fields := logrus.Fields{"employee_id": id}
		if managerID != nil {
			fields["manager_id"] = *managerID
		}
		return employee.Employee{}, s.fail(ctx, op, err, fields)
	}

	recordAssignmentCheck(op, true)
	if !sameManager(before.ManagerID, updated.ManagerID) {
		s.publish(&events.EmployeeUpdatedEvent{Before: before, After: updated})
		s.publish(&events.ManagerChangedEvent{EmployeeID: id, OldManagerID: before.ManagerID, NewManagerID: updated.ManagerID})
	}
	return updated, nil
}

// Delete soft-deletes an employee. Employees that still have direct
// subordinates must be reassigned first.
func (s *EmployeeService) Delete(ctx context.Context, id int64) (employee.Employee, error) {
	const op = "delete_employee"

	deleted, err := inTx(ctx, s.tx, func(txCtx context.Context) (employee.Employee, error) {
		if err := s.lock(txCtx); err != nil {
			return employee.Employee{}, err
		}
		existing, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		subs, err := s.repo.GetSubordinates(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		if len(subs) > 0 {
			return employee.Employee{}, newServiceError(http.StatusConflict, CodeHasSubordinates, "employee still has direct subordinates", nil)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return employee.Employee{}, err
		}
		return existing, nil
	})
	if err != nil {
		return employee.Employee{}, s.fail(ctx, op, err, logrus.Fields{"employee_id": id})
	}

	s.publish(&events.EmployeeDeletedEvent{Result: deleted})
	return deleted, nil
}

func (s *EmployeeService) guard(ctx context.Context) *hierarchy.Guard {
	opts := append(append([]hierarchy.GuardOption{}, s.guardOpts...), guardLogger(ctx)...)
	opts = append(opts, hierarchy.WithConcurrency(1))
	return hierarchy.NewGuard(s.repo, opts...)
}

func (s *EmployeeService) lock(txCtx context.Context) error {
	if !s.lockHierarchy {
		return nil
	}
	return s.tx.LockHierarchy(txCtx)
}

func (s *EmployeeService) checkHireDate(hireDate time.Time) error {
	if hireDate.After(s.now()) {
		return invalidBody("hire date cannot be in the future", nil)
	}
	return nil
}

// checkReferences verifies the email is free (ignoring selfID) and that the
// department, position and manager exist.
func (s *EmployeeService) checkReferences(ctx context.Context, selfID int64, email string, departmentID, positionID int64, managerID *int64) error {
	other, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && other.ID != selfID:
		return employee.ErrEmailConflict
	case err != nil && !errors.Is(err, employee.ErrNotFound):
		return err
	}

	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, department.ErrNotFound) {
			return newServiceError(http.StatusUnprocessableEntity, CodeDepartmentNotFound, "department not found", err)
		}
		return err
	}
	if _, err := s.positions.GetByID(ctx, positionID); err != nil {
		if errors.Is(err, position.ErrNotFound) {
			return newServiceError(http.StatusUnprocessableEntity, CodePositionNotFound, "position not found", err)
		}
		return err
	}
	return s.checkManager(ctx, managerID)
}

func (s *EmployeeService) checkManager(ctx context.Context, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	if _, err := s.repo.GetByID(ctx, *managerID); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return newServiceError(http.StatusUnprocessableEntity, CodeManagerNotFound, "manager not found", err)
		}
		return err
	}
	return nil
}

func (s *EmployeeService) fail(ctx context.Context, op string, err error, fields logrus.Fields) error {
	var cycleErr *hierarchy.CycleError
	if errors.As(err, &cycleErr) {
		recordAssignmentCheck(op, false)
	}
	logFailure(ctx, op, err, fields)
	return toServiceError(err)
}

func (s *EmployeeService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func sameManager(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
