package hierarchy

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// Guard answers graph questions about the manager relation by querying a Store.
// It holds no state between calls and never writes.
type Guard struct {
	store       Store
	concurrency int
	maxNodes    int
	log         logrus.FieldLogger
}

type GuardOption func(*Guard)

// WithConcurrency lets a traversal query up to n subordinate sets of the same
// BFS level at once. Values below 2 keep the walk sequential. The store must
// tolerate concurrent calls on ctx, so never use it with a transaction-bound
// store.
func WithConcurrency(n int) GuardOption {
	return func(g *Guard) { g.concurrency = n }
}

// WithMaxNodes caps how many employees a single traversal may visit. Exceeding
// it is reported as a structural inconsistency. Zero means unbounded; the
// visited set alone still guarantees termination.
func WithMaxNodes(n int) GuardOption {
	return func(g *Guard) { g.maxNodes = n }
}

func WithLogger(log logrus.FieldLogger) GuardOption {
	return func(g *Guard) { g.log = log }
}

func NewGuard(store Store, opts ...GuardOption) *Guard {
	g := &Guard{store: store, concurrency: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateAssignment reports whether employeeID may report to managerID.
// A nil managerID (no manager) is always valid. The returned error only
// carries store failures, cancellation or an exceeded traversal bound.
func (g *Guard) ValidateAssignment(ctx context.Context, employeeID int64, managerID *int64) (bool, error) {
	if managerID == nil {
		return true, nil
	}
	if *managerID == employeeID {
		return false, nil
	}

	target := *managerID
	found := false
	stats, err := g.walk(ctx, "validate_assignment", employeeID, func(e employee.Employee) bool {
		if e.ID == target {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	if len(stats.revisited) > 0 {
		g.warnRevisits("validate_assignment", employeeID, stats.revisited)
	}
	return !found, nil
}

// CheckAssignment is ValidateAssignment returning a *CycleError instead of false.
func (g *Guard) CheckAssignment(ctx context.Context, employeeID int64, managerID *int64) error {
	ok, err := g.ValidateAssignment(ctx, employeeID, managerID)
	if err != nil {
		return err
	}
	if !ok {
		return &CycleError{EmployeeID: employeeID, ManagerID: *managerID}
	}
	return nil
}

// AncestorChain returns the employee followed by its manager, that manager's
// manager and so on up to the root.
func (g *Guard) AncestorChain(ctx context.Context, employeeID int64) ([]employee.Employee, error) {
	const op = "ancestor_chain"

	current, err := g.store.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	chain := []employee.Employee{current}
	seen := map[int64]struct{}{current.ID: {}}
	for current.ManagerID != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		managerID := *current.ManagerID
		if _, ok := seen[managerID]; ok {
			return nil, inconsistency(op, KindCycle, chainIDs(chain, managerID)...)
		}
		if g.maxNodes > 0 && len(chain) >= g.maxNodes {
			return nil, inconsistency(op, KindBoundExceeded, employeeID)
		}

		manager, err := g.store.GetByID(ctx, managerID)
		if errors.Is(err, ErrNotFound) {
			return nil, inconsistency(op, KindDanglingManager, current.ID, managerID)
		}
		if err != nil {
			return nil, err
		}

		seen[manager.ID] = struct{}{}
		chain = append(chain, manager)
		current = manager
	}
	return chain, nil
}

// DescendantsOf returns every employee reporting, directly or transitively,
// to employeeID in breadth-first order. Each employee appears once.
func (g *Guard) DescendantsOf(ctx context.Context, employeeID int64) ([]employee.Employee, error) {
	const op = "descendants_of"

	out := make([]employee.Employee, 0, 16)
	stats, err := g.walk(ctx, op, employeeID, func(e employee.Employee) bool {
		out = append(out, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(stats.revisited) > 0 {
		return nil, inconsistency(op, KindCycle, stats.revisited...)
	}
	return out, nil
}

func (g *Guard) warnRevisits(op string, rootID int64, ids []int64) {
	if g.log == nil {
		return
	}
	g.log.WithFields(logrus.Fields{
		"op":          op,
		"root_id":     rootID,
		"revisited":   ids,
		"error_kind":  KindCycle,
		"error_class": "structural_inconsistency",
	}).Warn("orgchart.cycle.tolerated")
}

func chainIDs(chain []employee.Employee, closing int64) []int64 {
	ids := make([]int64, 0, len(chain)+1)
	for _, e := range chain {
		ids = append(ids, e.ID)
	}
	return append(ids, closing)
}
