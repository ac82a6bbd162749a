package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

const (
	CodeNotFound               = "ORGCHART_NOT_FOUND"
	CodeCycleRejected          = "ORGCHART_CYCLE_REJECTED"
	CodeStructuralInconsistent = "ORGCHART_STRUCTURAL_INCONSISTENCY"
	CodeInvalidBody            = "ORGCHART_INVALID_BODY"
	CodeManagerNotFound        = "ORGCHART_MANAGER_NOT_FOUND"
	CodeDepartmentNotFound     = "ORGCHART_DEPARTMENT_NOT_FOUND"
	CodePositionNotFound       = "ORGCHART_POSITION_NOT_FOUND"
	CodeEmailConflict          = "ORGCHART_EMAIL_CONFLICT"
	CodeHasSubordinates        = "ORGCHART_HAS_SUBORDINATES"
	CodeInUse                  = "ORGCHART_IN_USE"
	CodeConflict               = "ORGCHART_CONFLICT"
	CodeInternal               = "ORGCHART_INTERNAL"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func invalidBody(message string, cause error) *ServiceError {
	return newServiceError(http.StatusBadRequest, CodeInvalidBody, message, cause)
}

// toServiceError translates domain and driver errors into *ServiceError.
// Cancellation and unknown errors are returned unchanged.
func toServiceError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var cycleErr *hierarchy.CycleError
	if errors.As(err, &cycleErr) {
		if cycleErr.EmployeeID == cycleErr.ManagerID {
			return newServiceError(http.StatusUnprocessableEntity, CodeCycleRejected, "an employee cannot be their own manager", err)
		}
		return newServiceError(http.StatusUnprocessableEntity, CodeCycleRejected, "the manager reports to this employee", err)
	}

	var incErr *hierarchy.InconsistencyError
	if errors.As(err, &incErr) {
		return newServiceError(http.StatusInternalServerError, CodeStructuralInconsistent, "hierarchy data is inconsistent", err)
	}

	switch {
	case errors.Is(err, employee.ErrNotFound):
		return newServiceError(http.StatusNotFound, CodeNotFound, "employee not found", err)
	case errors.Is(err, department.ErrNotFound):
		return newServiceError(http.StatusNotFound, CodeNotFound, "department not found", err)
	case errors.Is(err, position.ErrNotFound):
		return newServiceError(http.StatusNotFound, CodeNotFound, "position not found", err)
	case errors.Is(err, employee.ErrEmailConflict):
		recordWriteConflict("email")
		return newServiceError(http.StatusConflict, CodeEmailConflict, "email already exists", err)
	}

	return mapPgErrorToServiceError(err)
}

func mapPgErrorToServiceError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, CodeNotFound, "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if strings.Contains(pgErr.ConstraintName, "email") {
			recordWriteConflict("email")
			return newServiceError(http.StatusConflict, CodeEmailConflict, "email already exists", err)
		}
		recordWriteConflict("unique")
		return newServiceError(http.StatusConflict, CodeConflict, "unique constraint violated", err)
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		switch {
		case strings.Contains(pgErr.ConstraintName, "manager"):
			return newServiceError(http.StatusUnprocessableEntity, CodeManagerNotFound, "manager not found", err)
		case strings.Contains(pgErr.ConstraintName, "department"):
			return newServiceError(http.StatusUnprocessableEntity, CodeDepartmentNotFound, "department not found", err)
		case strings.Contains(pgErr.ConstraintName, "position"):
			return newServiceError(http.StatusUnprocessableEntity, CodePositionNotFound, "position not found", err)
		default:
			return newServiceError(http.StatusConflict, CodeInUse, "row is still referenced", err)
		}
	case "23514": // check_violation
		if strings.HasSuffix(pgErr.ConstraintName, "_no_self_manager") {
			return newServiceError(http.StatusUnprocessableEntity, CodeCycleRejected, "an employee cannot be their own manager", err)
		}
		return invalidBody("check constraint violated", err)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		recordWriteConflict("serialization")
		return newServiceError(http.StatusConflict, CodeConflict, "concurrent update, retry the request", err)
	default:
		return newServiceError(http.StatusInternalServerError, CodeInternal, fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
