package controllers

import (
	"net/http"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

type employeeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID int64  `json:"department_id"`
	PositionID   int64  `json:"position_id"`
	ManagerID    *int64 `json:"manager_id"`
	HireDate     string `json:"hire_date"`
}

type managerRequest struct {
	ManagerID *int64 `json:"manager_id"`
}

type employeesResponse struct {
	Employees []employee.Employee `json:"employees"`
}

func (c *OrgChartAPIController) ListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	departmentID, err := queryID(r, "department_id")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, codeInvalidQuery, err.Error())
		return
	}
	var list []employee.Employee
	if departmentID != nil {
		list, err = c.employees.GetByDepartment(r.Context(), *departmentID)
	} else {
		list, err = c.employees.GetAll(r.Context())
	}
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employeesResponse{Employees: list})
}

func (c *OrgChartAPIController) GetEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	e, err := c.employees.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (c *OrgChartAPIController) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	var req employeeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "hire_date: "+err.Error())
		return
	}
	created, err := c.employees.Create(r.Context(), &employee.CreateDTO{
		Name:         req.Name,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
		PositionID:   req.PositionID,
		ManagerID:    req.ManagerID,
		HireDate:     hireDate,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (c *OrgChartAPIController) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	var req employeeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "hire_date: "+err.Error())
		return
	}
	updated, err := c.employees.Update(r.Context(), id, &employee.UpdateDTO{
		Name:         req.Name,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
		PositionID:   req.PositionID,
		ManagerID:    req.ManagerID,
		HireDate:     hireDate,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (c *OrgChartAPIController) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	deleted, err := c.employees.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (c *OrgChartAPIController) ChangeManager(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	var req managerRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	updated, err := c.employees.ChangeManager(r.Context(), id, req.ManagerID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (c *OrgChartAPIController) ValidateManager(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	var req managerRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid json body")
		return
	}
	res, err := c.orgchart.ValidateManager(r.Context(), id, req.ManagerID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (c *OrgChartAPIController) GetAncestors(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	chain, err := c.orgchart.Ancestors(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employeesResponse{Employees: chain})
}

func (c *OrgChartAPIController) GetDescendants(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	list, err := c.orgchart.Descendants(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, employeesResponse{Employees: list})
}
