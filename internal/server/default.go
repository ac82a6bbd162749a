package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/constants"
	"github.com/iota-uz/orgchart/pkg/httpapi"
	"github.com/iota-uz/orgchart/pkg/middleware"
	"github.com/iota-uz/orgchart/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()), // root span for each request

		middleware.TracedMiddleware("provide"),
		middleware.Provide(constants.AppKey, app),
	}
	if options.Pool != nil {
		middlewares = append(middlewares, middleware.WithPool(options.Pool))
	}
	middlewares = append(middlewares,
		middleware.TracedMiddleware("cors"),
		middleware.Cors(options.Configuration.CORSOrigins()...),
	)

	if rl := options.Configuration.RateLimit; rl.Enabled {
		store := middleware.NewMemoryStore()
		if rl.Storage == configuration.RateLimitStorageRedis {
			redisStore, err := middleware.NewRedisStore(options.Configuration.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
			} else {
				store = redisStore
			}
		}
		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: rl.GlobalRPS,
				Store:             store,
			}),
		)
	}

	app.RegisterMiddleware(middlewares...)

	serverInstance := server.NewHTTPServer(
		app,
		NotFound(),
		MethodNotAllowed(),
	)
	return serverInstance, nil
}

func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
}

func writeRouteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := composables.UseRequestID(r.Context())
	_ = httpapi.WriteError(w, status, code, message, httpapi.RequestMeta(requestID, "path", r.URL.Path))
}
