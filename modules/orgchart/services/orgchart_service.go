package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/pkg/eventbus"
)

var tracer = otel.Tracer("orgchart-services")

// SnapshotCache holds the last employee snapshot read from the store. Trees
// are never cached; every caller gets freshly built nodes.
type SnapshotCache interface {
	Get(ctx context.Context) ([]employee.Employee, bool, error)
	Set(ctx context.Context, snapshot []employee.Employee) error
	Invalidate(ctx context.Context) error
}

type OrgChartService struct {
	store     hierarchy.Store
	builder   *hierarchy.TreeBuilder
	cache     SnapshotCache
	guardOpts []hierarchy.GuardOption
}

type OrgChartServiceOption func(*OrgChartService)

func WithSnapshotCache(cache SnapshotCache) OrgChartServiceOption {
	return func(s *OrgChartService) { s.cache = cache }
}

func WithTraversalOptions(opts ...hierarchy.GuardOption) OrgChartServiceOption {
	return func(s *OrgChartService) { s.guardOpts = append(s.guardOpts, opts...) }
}

func NewOrgChartService(store hierarchy.Store, opts ...OrgChartServiceOption) *OrgChartService {
	s := &OrgChartService{store: store, builder: hierarchy.NewTreeBuilder()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrgChart returns the whole organization as a forest.
func (s *OrgChartService) GetOrgChart(ctx context.Context) ([]*hierarchy.Node, error) {
	const op = "get_org_chart"
	ctx, span := tracer.Start(ctx, "orgchart.GetOrgChart")
	defer span.End()

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, nil)
	}
	forest, err := s.builder.BuildForest(snapshot)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, nil)
	}
	span.SetAttributes(attribute.Int("orgchart.roots", len(forest)), attribute.Int("orgchart.employees", len(snapshot)))
	return forest, nil
}

// GetOrgChartByEmployee returns the subtree rooted at employeeID.
func (s *OrgChartService) GetOrgChartByEmployee(ctx context.Context, employeeID int64) (*hierarchy.Node, error) {
	const op = "get_org_chart_by_employee"
	ctx, span := tracer.Start(ctx, "orgchart.GetOrgChartByEmployee", trace.WithAttributes(attribute.Int64("orgchart.employee_id", employeeID)))
	defer span.End()

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, nil)
	}
	root, err := s.builder.BuildSubtree(employeeID, snapshot)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, logrus.Fields{"employee_id": employeeID})
	}
	return root, nil
}

// Ancestors returns the employee followed by its management chain up to the root.
func (s *OrgChartService) Ancestors(ctx context.Context, employeeID int64) ([]employee.Employee, error) {
	const op = "ancestors"
	ctx, span := tracer.Start(ctx, "orgchart.Ancestors", trace.WithAttributes(attribute.Int64("orgchart.employee_id", employeeID)))
	defer span.End()

	chain, err := s.guard(ctx).AncestorChain(ctx, employeeID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, logrus.Fields{"employee_id": employeeID})
	}
	return chain, nil
}

// Descendants returns everyone reporting to employeeID, directly or not, in
// breadth-first order.
func (s *OrgChartService) Descendants(ctx context.Context, employeeID int64) ([]employee.Employee, error) {
	const op = "descendants"
	ctx, span := tracer.Start(ctx, "orgchart.Descendants", trace.WithAttributes(attribute.Int64("orgchart.employee_id", employeeID)))
	defer span.End()

	if _, err := s.store.GetByID(ctx, employeeID); err != nil {
		return nil, s.fail(ctx, span, op, err, logrus.Fields{"employee_id": employeeID})
	}
	out, err := s.guard(ctx).DescendantsOf(ctx, employeeID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err, logrus.Fields{"employee_id": employeeID})
	}
	return out, nil
}

const (
	ReasonSelf            = "self_assignment"
	ReasonDescendant      = "manager_is_descendant"
	ReasonManagerNotFound = "manager_not_found"
)

type ManagerValidation struct {
	EmployeeID int64  `json:"employee_id"`
	ManagerID  *int64 `json:"manager_id"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
}

// ValidateManager answers whether managerID could become the manager of
// employeeID without writing anything.
func (s *OrgChartService) ValidateManager(ctx context.Context, employeeID int64, managerID *int64) (ManagerValidation, error) {
	const op = "validate_manager"
	ctx, span := tracer.Start(ctx, "orgchart.ValidateManager", trace.WithAttributes(attribute.Int64("orgchart.employee_id", employeeID)))
	defer span.End()

	res := ManagerValidation{EmployeeID: employeeID, ManagerID: managerID}
	if _, err := s.store.GetByID(ctx, employeeID); err != nil {
		return res, s.fail(ctx, span, op, err, logrus.Fields{"employee_id": employeeID})
	}
	if managerID != nil && *managerID != employeeID {
		_, err := s.store.GetByID(ctx, *managerID)
		if errors.Is(err, employee.ErrNotFound) {
			res.Reason = ReasonManagerNotFound
			recordAssignmentCheck(op, false)
			return res, nil
		}
		if err != nil {
			return res, s.fail(ctx, span, op, err, nil)
		}
	}

	ok, err := s.guard(ctx).ValidateAssignment(ctx, employeeID, managerID)
	if err != nil {
		return res, s.fail(ctx, span, op, err, logrus.Fields{"employee_id": employeeID})
	}
	recordAssignmentCheck(op, ok)
	res.Valid = ok
	switch {
	case ok:
	case *managerID == employeeID:
		res.Reason = ReasonSelf
	default:
		res.Reason = ReasonDescendant
	}
	return res, nil
}

type IntegrityReport struct {
	CheckedAt  time.Time `json:"checked_at"`
	Employees  int       `json:"employees"`
	Roots      int       `json:"roots"`
	Consistent bool      `json:"consistent"`
	Kind       string    `json:"kind,omitempty"`
	IDs        []int64   `json:"employee_ids,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// CheckIntegrity builds the forest straight from the store, bypassing the
// cache, and reports whether the data is a valid forest.
func (s *OrgChartService) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	const op = "check_integrity"
	ctx, span := tracer.Start(ctx, "orgchart.CheckIntegrity")
	defer span.End()

	report := IntegrityReport{CheckedAt: time.Now().UTC()}
	snapshot, err := s.store.GetAll(ctx)
	if err != nil {
		return report, s.fail(ctx, span, op, err, nil)
	}
	report.Employees = len(snapshot)
	orgchartSnapshotSize.Set(float64(len(snapshot)))

	forest, err := s.builder.BuildForest(snapshot)
	var incErr *hierarchy.InconsistencyError
	switch {
	case err == nil:
		report.Consistent = true
		report.Roots = len(forest)
	case errors.As(err, &incErr):
		logFailure(ctx, op, err, nil)
		span.SetAttributes(attribute.String("orgchart.inconsistency", incErr.Kind))
		report.Kind = incErr.Kind
		report.IDs = incErr.IDs
		report.Detail = incErr.Error()
	default:
		return report, s.fail(ctx, span, op, err, nil)
	}
	return report, nil
}

// Snapshot returns all employees, served from the cache when one is configured.
func (s *OrgChartService) Snapshot(ctx context.Context) ([]employee.Employee, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			logWithFields(ctx, logrus.WarnLevel, "orgchart.cache.read_failed", logrus.Fields{"error": err.Error()})
		}
		recordCacheRequest(ok)
		if ok {
			return cached, nil
		}
	}

	snapshot, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	orgchartSnapshotSize.Set(float64(len(snapshot)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			logWithFields(ctx, logrus.WarnLevel, "orgchart.cache.write_failed", logrus.Fields{"error": err.Error()})
		}
	}
	return snapshot, nil
}

func (s *OrgChartService) InvalidateCache(ctx context.Context, reason string) {
	if s.cache == nil {
		return
	}
	recordCacheInvalidate(reason)
	if err := s.cache.Invalidate(ctx); err != nil {
		logWithFields(ctx, logrus.WarnLevel, "orgchart.cache.invalidate_failed", logrus.Fields{"error": err.Error(), "reason": reason})
	}
}

// SubscribeInvalidation drops the cached snapshot whenever an employee,
// department or position changes. The returned func removes the handlers.
func (s *OrgChartService) SubscribeInvalidation(bus eventbus.EventBus) func() {
	ctx := context.Background()
	unsubs := []func(){
		bus.Subscribe(func(*events.EmployeeCreatedEvent) { s.InvalidateCache(ctx, "employee_created") }),
		bus.Subscribe(func(*events.EmployeeUpdatedEvent) { s.InvalidateCache(ctx, "employee_updated") }),
		bus.Subscribe(func(*events.EmployeeDeletedEvent) { s.InvalidateCache(ctx, "employee_deleted") }),
		bus.Subscribe(func(*events.DepartmentChangedEvent) { s.InvalidateCache(ctx, "department_changed") }),
		bus.Subscribe(func(*events.PositionChangedEvent) { s.InvalidateCache(ctx, "position_changed") }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *OrgChartService) guard(ctx context.Context) *hierarchy.Guard {
	opts := append(append([]hierarchy.GuardOption{}, s.guardOpts...), guardLogger(ctx)...)
	return hierarchy.NewGuard(s.store, opts...)
}

func (s *OrgChartService) fail(ctx context.Context, span trace.Span, op string, err error, fields logrus.Fields) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logFailure(ctx, op, err, fields)
	return toServiceError(err)
}
