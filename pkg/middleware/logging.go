package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/httpapi"
)

type LoggerOptions struct {
	// Bodies are only logged for JSON payloads of mutating requests and
	// for JSON error responses; everything else is too large or binary.
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodyLength   int

	Repanic bool
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodyLength:   512,
	}
}

// statusWriter records the status code and keeps the first limit bytes of
// the response body for logging.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
	limit   int
	body    bytes.Buffer
}

func (w *statusWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	if room := w.limit - w.body.Len(); room > 0 {
		w.body.Write(b[:min(room, len(b))])
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func realIP(r *http.Request, conf *configuration.Configuration) string {
	if v := r.Header.Get(conf.RealIPHeader); v != "" {
		return v
	}
	return r.RemoteAddr
}

func requestID(r *http.Request, conf *configuration.Configuration) string {
	if v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader)); v != "" {
		return v
	}
	return uuid.NewString()
}

var tracer = otel.Tracer("orgchart-middleware")

// TracedMiddleware opens a child span named middleware.<name> around the
// rest of the chain.
func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware."+name,
				trace.WithAttributes(attribute.String("middleware.name", name)),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func truncateBody(body string, limit int) string {
	if limit <= 0 || len(body) <= limit {
		return body
	}
	return body[:limit] + "...(truncated)"
}

// bodyField returns valid JSON as a decoded value so structured log sinks
// keep it queryable; anything else is logged as a truncated string.
func bodyField(raw []byte, limit int) any {
	if len(raw) <= limit || limit <= 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			return parsed
		}
	}
	return truncateBody(string(raw), limit)
}

// WithLogger is the root middleware: it assigns the request id, opens the
// request span, stores logger/request id/params in the context, logs the
// request lifecycle and converts handler panics into a 500 JSON envelope.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	conf := configuration.Use()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r, conf)
			ip := realIP(r, conf)

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request-id": id,
				"path":       r.URL.Path,
				"method":     r.Method,
			})
			fieldsLogger.WithFields(logrus.Fields{
				"query":      r.URL.RawQuery,
				"ip":         ip,
				"user-agent": r.UserAgent(),
			}).Info("request started")

			mutating := r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete
			if opts.LogRequestBody && mutating && r.Body != nil && isJSON(r.Header.Get("Content-Type")) {
				raw, err := io.ReadAll(r.Body)
				if err != nil {
					fieldsLogger.WithError(err).Warn("failed to read request-body")
				}
				// Malformed JSON is passed through untouched; the handler owns the 400.
				r.Body = io.NopCloser(bytes.NewReader(raw))
				fieldsLogger.WithField("request-body", bodyField(raw, opts.MaxBodyLength)).Debug("request-body")
			}

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "http.request",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.request_id", id),
					attribute.String("net.peer.ip", ip),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				fieldsLogger = fieldsLogger.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set("X-Request-Id", id)

			ctx = composables.WithLogger(ctx, fieldsLogger)
			ctx = composables.WithRequestID(ctx, id)
			ctx = composables.WithParams(ctx, &composables.Params{
				IP:        ip,
				UserAgent: r.UserAgent(),
				RequestID: id,
				Request:   r,
				Writer:    w,
			})

			sw := &statusWriter{ResponseWriter: w, limit: max(opts.MaxBodyLength, 0)}

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				span.SetStatus(codes.Error, fmt.Sprint(recovered))
				fieldsLogger.WithFields(logrus.Fields{
					"panic":    recovered,
					"stack":    string(debug.Stack()),
					"duration": time.Since(start),
				}).Error("panic recovered in request handler")

				if !sw.written {
					_ = httpapi.WriteError(sw, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error",
						httpapi.RequestMeta(id, "path", r.URL.Path))
				}
				if opts.Repanic {
					panic(recovered)
				}
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.Status()
			duration := time.Since(start)
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			entry := fieldsLogger.WithFields(logrus.Fields{
				"duration":     duration,
				"status-code":  status,
				"status-class": status / 100,
			})
			if opts.LogResponseBody && status >= http.StatusBadRequest && isJSON(sw.Header().Get("Content-Type")) {
				entry = entry.WithField("response-body", bodyField(sw.body.Bytes(), opts.MaxBodyLength))
			}
			entry.Info("request completed")
		})
	}
}
