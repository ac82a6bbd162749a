package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/composables"
)

type stubChecker struct {
	calls  atomic.Int32
	report services.IntegrityReport
	err    error
	sawLog atomic.Bool
}

func (c *stubChecker) CheckIntegrity(ctx context.Context) (services.IntegrityReport, error) {
	c.calls.Add(1)
	if _, err := composables.TryUseLogger(ctx); err == nil {
		c.sawLog.Store(true)
	}
	return c.report, c.err
}

func gaugeValue(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, integrityLastConsistent.Write(&m))
	return m.GetGauge().GetValue()
}

func TestRunOnce_Consistent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	checker := &stubChecker{report: services.IntegrityReport{Employees: 3, Roots: 1, Consistent: true}}
	s := NewIntegrityScheduler(context.Background(), checker, logger)

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, report.Consistent)
	require.True(t, checker.sawLog.Load())
	require.InDelta(t, 1, gaugeValue(t), 0)
	require.Equal(t, "integrity check passed", hook.LastEntry().Message)
	require.Equal(t, "orgchart.integrity", hook.LastEntry().Data["job"])
}

func TestRunOnce_Inconsistent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	checker := &stubChecker{report: services.IntegrityReport{Employees: 3, Kind: "cycle", IDs: []int64{2, 3}}}
	s := NewIntegrityScheduler(context.Background(), checker, logger)

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 0, gaugeValue(t), 0)
	entry := hook.LastEntry()
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, "cycle", entry.Data["kind"])
	require.Equal(t, []int64{2, 3}, entry.Data["employee_ids"])
}

func TestRunOnce_CheckerError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	boom := errors.New("db down")
	s := NewIntegrityScheduler(context.Background(), &stubChecker{err: boom}, logger)

	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, "integrity check failed", hook.LastEntry().Message)
}

func TestSchedule(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewIntegrityScheduler(context.Background(), &stubChecker{}, logger)

	require.Error(t, s.Schedule("every now and then"))
	require.NoError(t, s.Schedule("@every 15m"))
	require.Error(t, s.Schedule("@hourly"), "only one schedule per scheduler")
	require.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_RunsOnTick(t *testing.T) {
	logger, _ := test.NewNullLogger()
	checker := &stubChecker{report: services.IntegrityReport{Consistent: true}}
	s := NewIntegrityScheduler(context.Background(), checker, logger)
	require.NoError(t, s.Schedule("@every 1s"))

	s.Start()
	require.Eventually(t, func() bool { return checker.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
}
