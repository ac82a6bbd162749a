package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/events"
	"github.com/iota-uz/orgchart/pkg/application"
)

// AuditEventsHandler writes one structured log line per committed hierarchy
// change.
type AuditEventsHandler struct {
	log logrus.FieldLogger
}

func RegisterAuditEventHandlers(app application.Application) func() {
	h := &AuditEventsHandler{log: app.Logger().WithField("component", "orgchart.audit")}
	bus := app.EventPublisher()
	unsubs := []func(){
		bus.Subscribe(h.onEmployeeCreated),
		bus.Subscribe(h.onManagerChanged),
		bus.Subscribe(h.onEmployeeDeleted),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func managerField(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (h *AuditEventsHandler) onEmployeeCreated(ev *events.EmployeeCreatedEvent) {
	if ev == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"employee_id": ev.Result.ID,
		"manager_id":  managerField(ev.Result.ManagerID),
	}).Info("orgchart.employee.created")
}

func (h *AuditEventsHandler) onManagerChanged(ev *events.ManagerChangedEvent) {
	if ev == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"employee_id":    ev.EmployeeID,
		"old_manager_id": managerField(ev.OldManagerID),
		"new_manager_id": managerField(ev.NewManagerID),
	}).Info("orgchart.manager.changed")
}

func (h *AuditEventsHandler) onEmployeeDeleted(ev *events.EmployeeDeletedEvent) {
	if ev == nil {
		return
	}
	h.log.WithField("employee_id", ev.Result.ID).Info("orgchart.employee.deleted")
}
