package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func TestEmployeeService_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var published []*events.EmployeeCreatedEvent
	e.bus.Subscribe(func(ev *events.EmployeeCreatedEvent) { published = append(published, ev) })

	dto := e.createDTO("Jane", nil)
	dto.Email = "  Jane.Doe@Example.COM "
	dto.Name = "  Jane Doe "
	created, err := e.employees.Create(ctx, dto)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", created.Name)
	require.Equal(t, "jane.doe@example.com", created.Email)
	require.Equal(t, "Engineering", created.DepartmentName)
	require.True(t, created.IsRoot())
	require.Len(t, published, 1)
	require.Equal(t, created.ID, published[0].Result.ID)
}

func TestEmployeeService_CreateRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mustCreate(t, "taken", nil)

	cases := []struct {
		name   string
		mutate func(*employee.CreateDTO)
		status int
		code   string
	}{
		{"blank name", func(d *employee.CreateDTO) { d.Name = "   " }, http.StatusBadRequest, services.CodeInvalidBody},
		{"bad email", func(d *employee.CreateDTO) { d.Email = "not-an-email" }, http.StatusBadRequest, services.CodeInvalidBody},
		{"missing hire date", func(d *employee.CreateDTO) { d.HireDate = time.Time{} }, http.StatusBadRequest, services.CodeInvalidBody},
		{"future hire date", func(d *employee.CreateDTO) { d.HireDate = fixedNow.Add(48 * time.Hour) }, http.StatusBadRequest, services.CodeInvalidBody},
		{"unknown department", func(d *employee.CreateDTO) { d.DepartmentID = 999 }, http.StatusUnprocessableEntity, services.CodeDepartmentNotFound},
		{"unknown position", func(d *employee.CreateDTO) { d.PositionID = 999 }, http.StatusUnprocessableEntity, services.CodePositionNotFound},
		{"unknown manager", func(d *employee.CreateDTO) { d.ManagerID = ptr(999) }, http.StatusUnprocessableEntity, services.CodeManagerNotFound},
		{"duplicate email", func(d *employee.CreateDTO) { d.Email = "TAKEN@example.com" }, http.StatusConflict, services.CodeEmailConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dto := e.createDTO("someone", nil)
			tc.mutate(dto)
			_, err := e.employees.Create(ctx, dto)
			requireServiceError(t, err, tc.status, tc.code)
		})
	}

	n, err := e.employees.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestEmployeeService_ChangeManagerRejectsCycles(t *testing.T) {
	e := newEnv(t)
	ctx, hook := withLogHook(context.Background())
	a, b, c := e.chain(t)

	before := counterValue(t, "orgchart_assignment_checks_total", map[string]string{"op": "change_manager", "result": "rejected"})

	_, err := e.employees.ChangeManager(ctx, a.ID, ptr(c.ID))
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCycleRejected)

	_, err = e.employees.ChangeManager(ctx, b.ID, ptr(b.ID))
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCycleRejected)

	after := counterValue(t, "orgchart_assignment_checks_total", map[string]string{"op": "change_manager", "result": "rejected"})
	require.Equal(t, before+2, after)

	entry := findLog(hook, "orgchart.assignment.rejected")
	require.NotNil(t, entry)
	require.Equal(t, services.CodeCycleRejected, entry.Data["error_code"])
	require.Equal(t, a.ID, entry.Data["employee_id"])

	got, err := e.employees.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.IsRoot(), "rejected assignment must not be written")
}

func TestEmployeeService_ChangeManager(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.chain(t)

	var changes []*events.ManagerChangedEvent
	e.bus.Subscribe(func(ev *events.ManagerChangedEvent) { changes = append(changes, ev) })

	moved, err := e.employees.ChangeManager(ctx, c.ID, ptr(a.ID))
	require.NoError(t, err)
	require.Equal(t, a.ID, *moved.ManagerID)
	require.Len(t, changes, 1)
	require.Equal(t, b.ID, *changes[0].OldManagerID)
	require.Equal(t, a.ID, *changes[0].NewManagerID)

	// same manager again is a no-op
	_, err = e.employees.ChangeManager(ctx, c.ID, ptr(a.ID))
	require.NoError(t, err)
	require.Len(t, changes, 1)

	root, err := e.employees.ChangeManager(ctx, b.ID, nil)
	require.NoError(t, err)
	require.True(t, root.IsRoot())
	require.Nil(t, changes[1].NewManagerID)

	_, err = e.employees.ChangeManager(ctx, 404, ptr(a.ID))
	requireServiceError(t, err, http.StatusNotFound, services.CodeNotFound)

	_, err = e.employees.ChangeManager(ctx, a.ID, ptr(404))
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeManagerNotFound)

	_, err = e.employees.ChangeManager(ctx, a.ID, ptr(-1))
	requireServiceError(t, err, http.StatusBadRequest, services.CodeInvalidBody)
}

func TestEmployeeService_UpdateRunsGuard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, _, c := e.chain(t)

	update := &employee.UpdateDTO{
		Name:         "a renamed",
		Email:        a.Email,
		DepartmentID: a.DepartmentID,
		PositionID:   a.PositionID,
		HireDate:     a.HireDate,
		ManagerID:    ptr(c.ID),
	}
	_, err := e.employees.Update(ctx, a.ID, update)
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCycleRejected)

	got, err := e.employees.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "a", got.Name, "failed update must roll back")

	update.ManagerID = nil
	updated, err := e.employees.Update(ctx, a.ID, update)
	require.NoError(t, err)
	require.Equal(t, "a renamed", updated.Name)

	update.Email = c.Email
	_, err = e.employees.Update(ctx, a.ID, update)
	requireServiceError(t, err, http.StatusConflict, services.CodeEmailConflict)
}

func TestEmployeeService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.chain(t)

	_, err := e.employees.Delete(ctx, b.ID)
	requireServiceError(t, err, http.StatusConflict, services.CodeHasSubordinates)

	deleted, err := e.employees.Delete(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, deleted.ID)

	_, err = e.employees.GetByID(ctx, c.ID)
	requireServiceError(t, err, http.StatusNotFound, services.CodeNotFound)

	_, err = e.employees.Delete(ctx, b.ID)
	require.NoError(t, err)

	subs, err := e.employees.GetSubordinates(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestEmployeeService_ConcurrentSwapsCannotBothSucceed(t *testing.T) {
	for round := 0; round < 20; round++ {
		e := newEnv(t)
		ctx := context.Background()
		x := e.mustCreate(t, "x", nil)
		y := e.mustCreate(t, "y", nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = e.employees.ChangeManager(ctx, x.ID, ptr(y.ID))
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = e.employees.ChangeManager(ctx, y.ID, ptr(x.ID))
		}()
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCycleRejected)
				failures++
			}
		}
		require.Equal(t, 1, failures, "round %d", round)

		report, err := e.orgchart.CheckIntegrity(ctx)
		require.NoError(t, err)
		require.True(t, report.Consistent)
	}
}

var errConnBusy = errors.New("conn busy")

// singleConnRepo fails overlapping subordinate queries the way a single
// database connection does.
type singleConnRepo struct {
	employee.Repository
	inflight atomic.Int32
	queries  atomic.Int32
}

func (r *singleConnRepo) GetSubordinates(ctx context.Context, managerID int64) ([]employee.Employee, error) {
	r.queries.Add(1)
	if r.inflight.Add(1) > 1 {
		r.inflight.Add(-1)
		return nil, errConnBusy
	}
	defer r.inflight.Add(-1)
	time.Sleep(2 * time.Millisecond)
	return r.Repository.GetSubordinates(ctx, managerID)
}

func TestEmployeeService_GuardQueriesDoNotOverlapInsideTx(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	root := e.mustCreate(t, "root", nil)
	var leaf employee.Employee
	for _, name := range []string{"c1", "c2", "c3", "c4"} {
		leaf = e.mustCreate(t, name, ptr(root.ID))
	}
	x := e.mustCreate(t, "x", nil)

	repo := &singleConnRepo{Repository: e.store.Employees()}
	svc := services.NewEmployeeService(repo, e.store.Departments(), e.store.Positions(), e.store, e.bus,
		services.WithGuardOptions(hierarchy.WithConcurrency(8)),
		services.WithHierarchyLock(true),
	)

	moved, err := svc.ChangeManager(ctx, root.ID, ptr(x.ID))
	require.NoError(t, err)
	require.Equal(t, x.ID, *moved.ManagerID)

	// x -> root -> c1..c4: the walk from x expands a four-wide level.
	_, err = svc.ChangeManager(ctx, x.ID, ptr(leaf.ID))
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCycleRejected)
	require.Positive(t, repo.queries.Load())
}

func TestEmployeeService_GetByDepartment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.chain(t)

	list, err := e.employees.GetByDepartment(ctx, e.dept.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	_, err = e.employees.GetByDepartment(ctx, 404)
	requireServiceError(t, err, http.StatusNotFound, services.CodeNotFound)
}
