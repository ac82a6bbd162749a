package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/internal/server"
	"github.com/iota-uz/orgchart/modules"
	"github.com/iota-uz/orgchart/modules/orgchart"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/cache"
	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
	"github.com/iota-uz/orgchart/modules/orgchart/jobs"
	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/application"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/configuration"
	"github.com/iota-uz/orgchart/pkg/eventbus"
	"github.com/iota-uz/orgchart/pkg/logging"
	"github.com/iota-uz/orgchart/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	// Set up OpenTelemetry if enabled
	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := persistence.Migrate(ctx, pool, persistence.MigrateUp, logger); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	snapshotCache, err := newSnapshotCache(conf, logger)
	if err != nil {
		log.Fatalf("failed to set up snapshot cache: %v", err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules(&orgchart.ModuleOptions{
		Cache:  snapshotCache,
		Config: conf.OrgChart,
	})...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewScrapeController(conf.Prometheus.Path, metrics.WithLogger(logger)))
	}
	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if spec := conf.OrgChart.IntegritySchedule; spec != "" {
		orgchartService := app.Service(services.OrgChartService{}).(*services.OrgChartService)
		scheduler := jobs.NewIntegrityScheduler(composables.WithPool(runCtx, pool), orgchartService, logger)
		if err := scheduler.Schedule(spec); err != nil {
			log.Fatalf("failed to schedule integrity check: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}
	logger.WithField("addr", conf.SocketAddress).Info("listening")
	if err := serverInstance.Serve(runCtx, conf.SocketAddress); err != nil {
		logger.WithError(err).Error("server stopped")
	}
}

// newSnapshotCache returns nil when caching is disabled.
func newSnapshotCache(conf *configuration.Configuration, logger *logrus.Logger) (services.SnapshotCache, error) {
	opts := conf.OrgChart
	if !opts.CacheEnabled {
		return nil, nil
	}
	if opts.CacheBackend == configuration.CacheBackendRedis {
		client, err := cache.NewRedisClient(conf.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.WithField("ttl", opts.CacheTTL).Info("orgchart snapshot cache: redis")
		return cache.NewRedisCache(client, opts.CacheTTL), nil
	}
	logger.WithField("ttl", opts.CacheTTL).Info("orgchart snapshot cache: memory")
	return cache.NewMemoryCache(opts.CacheTTL), nil
}
