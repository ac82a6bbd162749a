package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/httpapi"
)

const (
	codeInvalidQuery = "ORGCHART_INVALID_QUERY"
	codeInvalidPath  = "ORGCHART_INVALID_PATH"
)

func ensureRequestID(r *http.Request) string {
	if id, ok := composables.UseRequestID(r.Context()); ok {
		return id
	}
	header := configuration.Use().RequestIDHeader
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return v
	}
	v := uuid.NewString()
	r.Header.Set(header, v)
	return v
}

func pathID(w http.ResponseWriter, r *http.Request, requestID string) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(w, http.StatusBadRequest, requestID, codeInvalidPath, fmt.Sprintf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer", key)
	}
	return &id, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return t.UTC(), nil
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	switch {
	case errors.As(err, &svcErr):
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		writeAPIError(w, http.StatusGatewayTimeout, requestID, services.CodeInternal, "request timed out")
	default:
		writeAPIError(w, http.StatusInternalServerError, requestID, services.CodeInternal, err.Error())
	}
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteError(w, status, code, message, httpapi.RequestMeta(requestID))
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
