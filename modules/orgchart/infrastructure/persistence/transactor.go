package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgchart/pkg/composables"
)

// hierarchyLockKey identifies the transaction-scoped advisory lock that
// serializes manager-changing writes.
const hierarchyLockKey int64 = 0x6f7267636861 // "orgcha"

var ErrLockOutsideTx = errors.New("hierarchy lock requires a transaction")

// Transactor runs units of work on the pool stored in the context.
type Transactor struct{}

func NewTransactor() *Transactor {
	return &Transactor{}
}

func (t *Transactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	return composables.InTx(ctx, fn)
}

func (t *Transactor) LockHierarchy(ctx context.Context) error {
	if !composables.InTransaction(ctx) {
		return ErrLockOutsideTx
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hierarchyLockKey); err != nil {
		return errors.Wrap(err, "acquire hierarchy lock")
	}
	return nil
}
