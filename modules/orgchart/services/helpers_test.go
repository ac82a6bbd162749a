package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/eventbus"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	store     *memstore.Store
	bus       eventbus.EventBus
	employees *services.EmployeeService
	depts     *services.DepartmentService
	positions *services.PositionService
	orgchart  *services.OrgChartService
	dept      department.Department
	pos       position.Position
}

func newEnv(t *testing.T, orgOpts ...services.OrgChartServiceOption) *env {
	t.Helper()
	store := memstore.New()
	bus := eventbus.NewEventPublisher(logrus.New())
	e := &env{
		store:     store,
		bus:       bus,
		employees: services.NewEmployeeService(store.Employees(), store.Departments(), store.Positions(), store, bus, services.WithClock(func() time.Time { return fixedNow })),
		depts:     services.NewDepartmentService(store.Departments(), store, bus),
		positions: services.NewPositionService(store.Positions(), store, bus),
		orgchart:  services.NewOrgChartService(store.Employees(), orgOpts...),
	}
	t.Cleanup(e.orgchart.SubscribeInvalidation(bus))

	ctx := context.Background()
	var err error
	e.dept, err = e.depts.Create(ctx, &department.CreateDTO{Name: "Engineering"})
	require.NoError(t, err)
	e.pos, err = e.positions.Create(ctx, &position.CreateDTO{Name: "Engineer", Level: position.LevelSenior})
	require.NoError(t, err)
	return e
}

func (e *env) createDTO(name string, managerID *int64) *employee.CreateDTO {
	return &employee.CreateDTO{
		Name:         name,
		Email:        name + "@example.com",
		DepartmentID: e.dept.ID,
		PositionID:   e.pos.ID,
		HireDate:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		ManagerID:    managerID,
	}
}

func (e *env) mustCreate(t *testing.T, name string, managerID *int64) employee.Employee {
	t.Helper()
	created, err := e.employees.Create(context.Background(), e.createDTO(name, managerID))
	require.NoError(t, err)
	return created
}

// chain creates A <- B <- C and returns them in that order.
func (e *env) chain(t *testing.T) (employee.Employee, employee.Employee, employee.Employee) {
	t.Helper()
	a := e.mustCreate(t, "a", nil)
	b := e.mustCreate(t, "b", ptr(a.ID))
	c := e.mustCreate(t, "c", ptr(b.ID))
	return a, b, c
}

func ptr(v int64) *int64 { return &v }

func requireServiceError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var svcErr *services.ServiceError
	require.True(t, errors.As(err, &svcErr), "expected *ServiceError, got %T: %v", err, err)
	require.Equal(t, status, svcErr.Status)
	require.Equal(t, code, svcErr.Code)
}

func withLogHook(ctx context.Context) (context.Context, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return composables.WithLogger(ctx, logrus.NewEntry(logger)), hook
}

func findLog(hook *logtest.Hook, msg string) *logrus.Entry {
	for _, e := range hook.AllEntries() {
		if e.Message == msg {
			return e
		}
	}
	return nil
}

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
