package controllers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/exporters"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
)

type OrgChartAPIController struct {
	orgchart    *services.OrgChartService
	employees   *services.EmployeeService
	departments *services.DepartmentService
	positions   *services.PositionService
	apiPrefix   string
}

func NewOrgChartAPIController(app application.Application) application.Controller {
	return &OrgChartAPIController{
		orgchart:    app.Service(services.OrgChartService{}).(*services.OrgChartService),
		employees:   app.Service(services.EmployeeService{}).(*services.EmployeeService),
		departments: app.Service(services.DepartmentService{}).(*services.DepartmentService),
		positions:   app.Service(services.PositionService{}).(*services.PositionService),
		apiPrefix:   "/orgchart/api",
	}
}

func (c *OrgChartAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrgChartAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/tree", instrumentAPI("tree", c.GetTree)).Methods(http.MethodGet)
	api.HandleFunc("/tree/{id:[0-9]+}", instrumentAPI("subtree", c.GetSubtree)).Methods(http.MethodGet)
	api.HandleFunc("/integrity", instrumentAPI("integrity", c.GetIntegrity)).Methods(http.MethodGet)

	api.HandleFunc("/employees", instrumentAPI("employees.list", c.ListEmployees)).Methods(http.MethodGet)
	api.HandleFunc("/employees", instrumentAPI("employees.create", c.CreateEmployee)).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id:[0-9]+}:validate-manager", instrumentAPI("employees.validate_manager", c.ValidateManager)).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id:[0-9]+}/manager", instrumentAPI("employees.change_manager", c.ChangeManager)).Methods(http.MethodPut)
	api.HandleFunc("/employees/{id:[0-9]+}/ancestors", instrumentAPI("employees.ancestors", c.GetAncestors)).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id:[0-9]+}/descendants", instrumentAPI("employees.descendants", c.GetDescendants)).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id:[0-9]+}", instrumentAPI("employees.get", c.GetEmployee)).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id:[0-9]+}", instrumentAPI("employees.update", c.UpdateEmployee)).Methods(http.MethodPut)
	api.HandleFunc("/employees/{id:[0-9]+}", instrumentAPI("employees.delete", c.DeleteEmployee)).Methods(http.MethodDelete)

	api.HandleFunc("/departments", instrumentAPI("departments.list", c.ListDepartments)).Methods(http.MethodGet)
	api.HandleFunc("/departments", instrumentAPI("departments.create", c.CreateDepartment)).Methods(http.MethodPost)
	api.HandleFunc("/departments/{id:[0-9]+}", instrumentAPI("departments.get", c.GetDepartment)).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id:[0-9]+}", instrumentAPI("departments.update", c.UpdateDepartment)).Methods(http.MethodPut)
	api.HandleFunc("/departments/{id:[0-9]+}", instrumentAPI("departments.delete", c.DeleteDepartment)).Methods(http.MethodDelete)

	api.HandleFunc("/positions", instrumentAPI("positions.list", c.ListPositions)).Methods(http.MethodGet)
	api.HandleFunc("/positions", instrumentAPI("positions.create", c.CreatePosition)).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id:[0-9]+}", instrumentAPI("positions.get", c.GetPosition)).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id:[0-9]+}", instrumentAPI("positions.update", c.UpdatePosition)).Methods(http.MethodPut)
	api.HandleFunc("/positions/{id:[0-9]+}", instrumentAPI("positions.delete", c.DeletePosition)).Methods(http.MethodDelete)
}

type treeResponse struct {
	Employees int               `json:"employees"`
	Roots     []*hierarchy.Node `json:"roots"`
}

func (c *OrgChartAPIController) GetTree(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	rootID, err := queryID(r, "root")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, codeInvalidQuery, err.Error())
		return
	}

	var roots []*hierarchy.Node
	if rootID != nil {
		node, err := c.orgchart.GetOrgChartByEmployee(r.Context(), *rootID)
		if err != nil {
			writeServiceError(w, requestID, err)
			return
		}
		roots = []*hierarchy.Node{node}
	} else {
		roots, err = c.orgchart.GetOrgChart(r.Context())
		if err != nil {
			writeServiceError(w, requestID, err)
			return
		}
	}
	c.writeTree(w, r, requestID, roots)
}

func (c *OrgChartAPIController) GetSubtree(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}
	node, err := c.orgchart.GetOrgChartByEmployee(r.Context(), id)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	c.writeTree(w, r, requestID, []*hierarchy.Node{node})
}

var exportContentTypes = map[string]string{
	exporters.FormatText: "text/plain; charset=utf-8",
	exporters.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// writeTree answers with JSON unless ?format asks for one of the exports.
func (c *OrgChartAPIController) writeTree(w http.ResponseWriter, r *http.Request, requestID string, roots []*hierarchy.Node) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" || format == exporters.FormatJSON {
		writeJSON(w, http.StatusOK, treeResponse{Employees: hierarchy.Count(roots), Roots: roots})
		return
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, codeInvalidQuery, "format must be one of json|text|xlsx")
		return
	}
	var buf bytes.Buffer
	if err := exporters.Export(&buf, format, roots); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if format == exporters.FormatXLSX {
		w.Header().Set("Content-Disposition", `attachment; filename="orgchart.xlsx"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (c *OrgChartAPIController) GetIntegrity(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(r)
	report, err := c.orgchart.CheckIntegrity(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
