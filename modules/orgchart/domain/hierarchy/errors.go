package hierarchy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// Sentinel errors for programmatic checks via errors.Is().
var (
	// ErrNotFound indicates a referenced employee id is absent from the store or
	// snapshot. Stores report it with employee.ErrNotFound.
	ErrNotFound = employee.ErrNotFound

	// ErrCycleRejected indicates a manager assignment that is self-referential or
	// would make an employee report to one of its own descendants.
	ErrCycleRejected = errors.New("manager assignment would create a cycle")

	// ErrStructuralInconsistency indicates the existing data already violates the
	// forest invariant. It points at a prior breach elsewhere, not at a bad request.
	ErrStructuralInconsistency = errors.New("hierarchy structure is inconsistent")
)

// Inconsistency kinds reported by InconsistencyError.
const (
	KindCycle           = "cycle"
	KindDuplicateID     = "duplicate_id"
	KindUnreachable     = "unreachable"
	KindDanglingManager = "dangling_manager"
	KindDepthExceeded   = "depth_exceeded"
	KindBoundExceeded   = "bound_exceeded"
)

// CycleError carries the rejected edge. Wraps ErrCycleRejected.
type CycleError struct {
	EmployeeID int64
	ManagerID  int64
}

func (e *CycleError) Error() string {
	if e.EmployeeID == e.ManagerID {
		return fmt.Sprintf("%s: employee %d cannot manage itself", ErrCycleRejected.Error(), e.EmployeeID)
	}
	return fmt.Sprintf("%s: employee %d is an ancestor of %d", ErrCycleRejected.Error(), e.EmployeeID, e.ManagerID)
}

func (e *CycleError) Unwrap() error { return ErrCycleRejected }

// InconsistencyError describes which traversal tripped over corrupt data.
// Wraps ErrStructuralInconsistency.
type InconsistencyError struct {
	Op   string  // operation that detected the problem, e.g. "build_forest"
	Kind string  // one of the Kind* constants
	IDs  []int64 // offending employee ids, if known
}

func (e *InconsistencyError) Error() string {
	var b strings.Builder
	b.WriteString(ErrStructuralInconsistency.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Kind != "" {
		b.WriteString(": ")
		b.WriteString(e.Kind)
	}
	if len(e.IDs) > 0 {
		b.WriteString(" (employees ")
		for i, id := range e.IDs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d", id)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *InconsistencyError) Unwrap() error { return ErrStructuralInconsistency }

func inconsistency(op, kind string, ids ...int64) *InconsistencyError {
	return &InconsistencyError{Op: op, Kind: kind, IDs: ids}
}
