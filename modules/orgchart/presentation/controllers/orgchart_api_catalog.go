package controllers

import (
	"net/http"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/department"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

type departmentsResponse struct {
	Departments []department.Department `json:"departments"`
}

type positionsResponse struct {
	Positions []position.Position `json:"positions"`
}

func (c *OrgChartAPIController) ListDepartments(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	list, err := c.departments.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, departmentsResponse{Departments: list})
}

func (c *OrgChartAPIController) GetDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	d, err := c.departments.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (c *OrgChartAPIController) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	var dto department.CreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	created, err := c.departments.Create(r.Context(), &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (c *OrgChartAPIController) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	var dto department.UpdateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	updated, err := c.departments.Update(r.Context(), id, &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (c *OrgChartAPIController) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	deleted, err := c.departments.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (c *OrgChartAPIController) ListPositions(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	list, err := c.positions.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, positionsResponse{Positions: list})
}

func (c *OrgChartAPIController) GetPosition(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	p, err := c.positions.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *OrgChartAPIController) CreatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	var dto position.CreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	created, err := c.positions.Create(r.Context(), &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (c *OrgChartAPIController) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	var dto position.UpdateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	updated, err := c.positions.Update(r.Context(), id, &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (c *OrgChartAPIController) DeletePosition(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	deleted, err := c.positions.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
