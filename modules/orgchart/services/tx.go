package services

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// Transactor is the unit-of-work boundary of the backing store.
type Transactor interface {
	// InTx runs fn atomically. Repositories called with the context passed to
	// fn take part in the transaction.
	InTx(ctx context.Context, fn func(txCtx context.Context) error) error
	// LockHierarchy serializes manager-changing writes until the surrounding
	// transaction ends. It must be called with a context obtained from InTx.
	LockHierarchy(txCtx context.Context) error
}

func inTx[T any](ctx context.Context, tx Transactor, fn func(txCtx context.Context) (T, error)) (T, error) {
	var out T
	err := tx.InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateDTO runs struct tag validation and reports the first failing field.
func validateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalidBody("invalid field "+fe.Field()+" ("+fe.Tag()+")", err)
	}
	return invalidBody("invalid request body", err)
}
