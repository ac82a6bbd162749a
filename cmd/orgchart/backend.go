package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/snapshotfile"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/logging"
)

// backend bundles the services a command needs, backed either by Postgres or
// by an in-memory store loaded from a snapshot file.
type backend struct {
	ctx    context.Context
	logger *logrus.Logger
	pool   *pgxpool.Pool

	orgchart    *services.OrgChartService
	employees   *services.EmployeeService
	departments *services.DepartmentService
	positions   *services.PositionService
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func newLogger(cmd *cobra.Command, conf *configuration.Configuration) *logrus.Logger {
	logger := logging.ConsoleLogger(conf.LogrusLogLevel())
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}

func loadConfig() (*configuration.Configuration, error) {
	conf, err := configuration.Parse()
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("configuration: %w", err))
	}
	return conf, nil
}

func connectDB(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("db connect failed: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("db ping failed: %w", err))
	}
	return pool, nil
}

// openBackend honours --snapshot; without it the command talks to the database.
func openBackend(cmd *cobra.Command, opts *rootOptions) (*backend, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, conf)

	b := &backend{logger: logger}
	ctx := composables.WithRequestID(cmd.Context(), uuid.NewString())
	moduleOpts := &orgchart.ModuleOptions{Config: conf.OrgChart}
	appOpts := &application.ApplicationOptions{Logger: logger}

	if opts != nil && opts.snapshot != "" {
		f, err := snapshotfile.ReadFile(opts.snapshot)
		if err != nil {
			return nil, withCode(exitUsage, err)
		}
		moduleOpts.Memory = snapshotfile.LoadIntoMemstore(f)
	} else {
		pool, err := connectDB(ctx, conf)
		if err != nil {
			return nil, err
		}
		b.pool = pool
		appOpts.Pool = pool
		ctx = composables.WithPool(ctx, pool)
	}

	app := application.New(appOpts)
	if err := orgchart.NewModule(moduleOpts).Register(app); err != nil {
		b.Close()
		return nil, err
	}
	requestID, _ := composables.UseRequestID(ctx)
	b.ctx = composables.WithLogger(ctx, logger.WithField("request-id", requestID))
	b.orgchart = app.Service(services.OrgChartService{}).(*services.OrgChartService)
	b.employees = app.Service(services.EmployeeService{}).(*services.EmployeeService)
	b.departments = app.Service(services.DepartmentService{}).(*services.DepartmentService)
	b.positions = app.Service(services.PositionService{}).(*services.PositionService)
	return b, nil
}

// serviceExit maps service errors onto process exit codes.
func serviceExit(err error) error {
	if err == nil {
		return nil
	}
	if se, ok := asServiceError(err); ok {
		switch {
		case se.Status == 404 || se.Status == 400:
			return withCode(exitUsage, err)
		case se.Code == services.CodeCycleRejected || se.Code == services.CodeStructuralInconsistent:
			return withCode(exitRejected, err)
		}
	}
	return withCode(exitDB, err)
}
