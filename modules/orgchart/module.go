package orgchart

import (
	"errors"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/modules/orgchart/handlers"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/controllers"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/configuration"
)

type ModuleOptions struct {
	// Memory, when set, backs the module instead of the application's pool.
	Memory *memstore.Store
	Cache  services.SnapshotCache
	Config configuration.OrgChartOptions
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{opts: opts}
}

type Module struct {
	opts *ModuleOptions
}

type stores struct {
	employees   employee.Repository
	departments department.Repository
	positions   position.Repository
	tx          services.Transactor
}

func (m *Module) stores(app application.Application) (stores, error) {
	if mem := m.opts.Memory; mem != nil {
		return stores{mem.Employees(), mem.Departments(), mem.Positions(), mem}, nil
	}
	if app.DB() == nil {
		return stores{}, errors.New("orgchart: no database pool and no in-memory store configured")
	}
	return stores{
		persistence.NewEmployeeRepository(),
		persistence.NewDepartmentRepository(),
		persistence.NewPositionRepository(),
		persistence.NewTransactor(),
	}, nil
}

func (m *Module) Register(app application.Application) error {
	st, err := m.stores(app)
	if err != nil {
		return err
	}

	maxNodes := hierarchy.WithMaxNodes(m.opts.Config.MaxTraversalNodes)
	// Fan-out only on read paths; writes traverse on a single transaction.
	traversal := []hierarchy.GuardOption{
		hierarchy.WithConcurrency(max(m.opts.Config.TraversalConcurrency, 1)),
		maxNodes,
	}
	bus := app.EventPublisher()

	orgOpts := []services.OrgChartServiceOption{services.WithTraversalOptions(traversal...)}
	if m.opts.Cache != nil {
		orgOpts = append(orgOpts, services.WithSnapshotCache(m.opts.Cache))
	}
	orgchartService := services.NewOrgChartService(st.employees, orgOpts...)
	orgchartService.SubscribeInvalidation(bus)

	app.RegisterServices(
		orgchartService,
		services.NewEmployeeService(
			st.employees, st.departments, st.positions, st.tx, bus,
			services.WithGuardOptions(maxNodes),
			services.WithHierarchyLock(m.opts.Config.AssignmentLock != configuration.AssignmentLockNone),
		),
		services.NewDepartmentService(st.departments, st.tx, bus),
		services.NewPositionService(st.positions, st.tx, bus),
	)
	handlers.RegisterAuditEventHandlers(app)

	app.RegisterControllers(
		controllers.NewOrgChartAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "orgchart"
}
