// Package jobs runs periodic background work for the org chart module.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/composables"
)

var integrityLastConsistent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "orgchart",
	Subsystem: "jobs",
	Name:      "integrity_consistent",
	Help:      "1 when the last scheduled integrity check found a valid forest, 0 otherwise.",
})

type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context) (services.IntegrityReport, error)
}

// IntegrityScheduler runs CheckIntegrity on a cron schedule. Runs never
// overlap: a tick that fires while the previous check is still running is
// skipped.
type IntegrityScheduler struct {
	checker IntegrityChecker
	logger  *logrus.Entry
	cron    *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entry   cron.EntryID
	running bool
}

// NewIntegrityScheduler builds a stopped scheduler. ctx is the parent of
// every check and must carry whatever the store needs (a pool for Postgres).
func NewIntegrityScheduler(ctx context.Context, checker IntegrityChecker, logger *logrus.Logger) *IntegrityScheduler {
	ctx, cancel := context.WithCancel(ctx)
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &IntegrityScheduler{
		checker: checker,
		logger:  logger.WithField("job", "orgchart.integrity"),
		cron:    cron.New(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule registers the check under a standard five-field spec or a
// descriptor such as "@every 15m" or "@hourly".
func (s *IntegrityScheduler) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != 0 {
		return fmt.Errorf("integrity check already scheduled")
	}
	id, err := s.cron.AddFunc(spec, func() { s.tick() })
	if err != nil {
		return fmt.Errorf("invalid integrity schedule %q: %w", spec, err)
	}
	s.entry = id
	s.logger.WithField("schedule", spec).Info("integrity check scheduled")
	return nil
}

func (s *IntegrityScheduler) Start() {
	s.cron.Start()
}

// Stop cancels an in-flight check and waits for it to return.
func (s *IntegrityScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *IntegrityScheduler) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous integrity check still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	_, _ = s.RunOnce(s.ctx)
}

// RunOnce performs a single check and logs the outcome.
func (s *IntegrityScheduler) RunOnce(ctx context.Context) (services.IntegrityReport, error) {
	ctx = composables.WithLogger(ctx, s.logger)

	report, err := s.checker.CheckIntegrity(ctx)
	if err != nil {
		s.logger.WithError(err).Error("integrity check failed")
		return report, err
	}

	fields := logrus.Fields{
		"employees":  report.Employees,
		"roots":      report.Roots,
		"consistent": report.Consistent,
	}
	if report.Consistent {
		integrityLastConsistent.Set(1)
		s.logger.WithFields(fields).Info("integrity check passed")
		return report, nil
	}
	integrityLastConsistent.Set(0)
	fields["kind"] = report.Kind
	fields["employee_ids"] = report.IDs
	s.logger.WithFields(fields).Error("integrity check found an inconsistent hierarchy")
	return report, nil
}
