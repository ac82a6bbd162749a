package hierarchy

import (
	"context"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// Store is the read contract the hierarchy code needs from the employee store.
// GetByID must return an error matching ErrNotFound (errors.Is) when the id is absent.
type Store interface {
	GetByID(ctx context.Context, id int64) (employee.Employee, error)
	GetSubordinates(ctx context.Context, managerID int64) ([]employee.Employee, error)
	GetAll(ctx context.Context) ([]employee.Employee, error)
}
