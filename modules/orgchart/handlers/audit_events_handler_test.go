package handlers_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/modules/orgchart/handlers"
	"github.com/iota-uz/orgchart/pkg/application"
)

func TestAuditEventHandlers(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := application.New(&application.ApplicationOptions{Logger: logger})
	unsubscribe := handlers.RegisterAuditEventHandlers(app)

	oldID, newID := int64(1), int64(2)
	app.EventPublisher().Publish(&events.ManagerChangedEvent{EmployeeID: 7, OldManagerID: &oldID, NewManagerID: &newID})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "orgchart.manager.changed", entry.Message)
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, int64(7), entry.Data["employee_id"])
	require.Equal(t, int64(1), entry.Data["old_manager_id"])
	require.Equal(t, int64(2), entry.Data["new_manager_id"])

	app.EventPublisher().Publish(&events.EmployeeCreatedEvent{Result: employee.Employee{ID: 9}})
	require.Equal(t, "orgchart.employee.created", hook.LastEntry().Message)
	require.Nil(t, hook.LastEntry().Data["manager_id"])

	unsubscribe()
	hook.Reset()
	app.EventPublisher().Publish(&events.EmployeeDeletedEvent{Result: employee.Employee{ID: 9}})
	for _, e := range hook.AllEntries() {
		require.NotEqual(t, "orgchart.employee.deleted", e.Message)
	}
}
