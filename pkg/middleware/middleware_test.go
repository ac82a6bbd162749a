package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/constants"
	"github.com/iota-uz/orgchart/pkg/middleware"
)

func TestWithLogger_PropagatesRequestContext(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var (
		gotID     string
		gotLogger bool
		gotIP     string
	)
	handler := middleware.WithLogger(logger, middleware.DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = composables.UseRequestID(r.Context())
		_, err := composables.TryUseLogger(r.Context())
		gotLogger = err == nil
		gotIP, _ = composables.UseIP(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orgchart/api/tree", nil)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("X-Real-IP", "10.0.0.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "req-42", gotID)
	require.True(t, gotLogger)
	require.Equal(t, "10.0.0.7", gotIP)
	require.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))

	var completed *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "request completed" {
			completed = e
		}
	}
	require.NotNil(t, completed)
	require.Equal(t, http.StatusTeapot, completed.Data["status-code"])
	require.Equal(t, "req-42", completed.Data["request-id"])
}

func TestWithLogger_GeneratesRequestID(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var gotID string
	handler := middleware.WithLogger(logger, middleware.DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = composables.UseRequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, gotID, 36)
	require.Equal(t, gotID, rec.Header().Get("X-Request-Id"))
}

func TestWithLogger_RecoversPanicsAsJSON(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := middleware.WithLogger(logger, middleware.DefaultLoggerOptions())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	req := httptest.NewRequest(http.MethodGet, "/orgchart/api/integrity", nil)
	req.Header.Set("X-Request-ID", "req-panic")
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() { handler.ServeHTTP(rec, req) })
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)
	require.Contains(t, rec.Body.String(), `"request_id":"req-panic"`)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "panic recovered in request handler" {
			found = true
			require.Equal(t, logrus.ErrorLevel, e.Level)
		}
	}
	require.True(t, found)
}

func TestWithLogger_KeepsJSONBodyReadable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var body string
	handler := middleware.WithLogger(logger, middleware.DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		body = string(b)
	}))
	req := httptest.NewRequest(http.MethodPost, "/orgchart/api/employees", strings.NewReader(`{"name":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.JSONEq(t, `{"name":"A"}`, body)
}

func TestCors(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orgchart/api/tree", nil)
		req.Header.Set("Origin", "https://chart.example.com")
		rec := httptest.NewRecorder()
		middleware.Cors("https://chart.example.com")(next).ServeHTTP(rec, req)
		require.Equal(t, "https://chart.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orgchart/api/tree", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		middleware.Cors("https://chart.example.com")(next).ServeHTTP(rec, req)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disabled", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://chart.example.com")
		rec := httptest.NewRecorder()
		middleware.Cors()(next).ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestProvide(t *testing.T) {
	var got any
	handler := middleware.Provide(constants.AppKey, "app")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context().Value(constants.AppKey)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "app", got)
}

func TestWithLogger_PassesMalformedJSONToHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	handler := middleware.WithLogger(logger, middleware.DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		require.Equal(t, `{"name":`, string(b))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"ORGCHART_INVALID_BODY","message":"invalid json body"}`)
	}))
	req := httptest.NewRequest(http.MethodPost, "/orgchart/api/employees", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var completed *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "request completed" {
			completed = e
		}
	}
	require.NotNil(t, completed)
	body, ok := completed.Data["response-body"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ORGCHART_INVALID_BODY", body["code"])
}
