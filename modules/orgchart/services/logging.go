package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/pkg/composables"
)

func loggerFromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return nil
	}
	logger, err := composables.TryUseLogger(ctx)
	if err != nil {
		return nil
	}
	return logger
}

func logWithFields(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields) {
	logger := loggerFromContext(ctx)
	if logger == nil {
		return
	}
	if requestID, ok := composables.UseRequestID(ctx); ok {
		fields["request_id"] = requestID
	}
	if ip, ok := composables.UseIP(ctx); ok && ip != "" {
		fields["ip"] = ip
	}
	logger.WithFields(fields).Log(level, msg)
}

// logFailure emits the dedicated event for rejected assignments and for
// structural inconsistencies. Other errors are left to the transport layer.
func logFailure(ctx context.Context, op string, err error, extra logrus.Fields) {
	fields := logrus.Fields{"op": op}
	for k, v := range extra {
		fields[k] = v
	}

	var incErr *hierarchy.InconsistencyError
	if errors.As(err, &incErr) {
		recordInconsistency(incErr.Kind)
		fields["error_code"] = CodeStructuralInconsistent
		fields["error_kind"] = incErr.Kind
		fields["detected_by"] = incErr.Op
		fields["employee_ids"] = incErr.IDs
		logWithFields(ctx, logrus.ErrorLevel, "orgchart.structure.inconsistent", fields)
		return
	}

	var cycleErr *hierarchy.CycleError
	if errors.As(err, &cycleErr) {
		fields["error_code"] = CodeCycleRejected
		fields["employee_id"] = cycleErr.EmployeeID
		fields["manager_id"] = cycleErr.ManagerID
		logWithFields(ctx, logrus.WarnLevel, "orgchart.assignment.rejected", fields)
	}
}

func guardLogger(ctx context.Context) []hierarchy.GuardOption {
	if logger := loggerFromContext(ctx); logger != nil {
		return []hierarchy.GuardOption{hierarchy.WithLogger(logger)}
	}
	return nil
}
