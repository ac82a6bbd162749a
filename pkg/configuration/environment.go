package configuration

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory. Files missing
// there are looked up in the nearest parent directory that holds a go.mod, so
// tests running inside a package directory still see the repository's .env.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	root := findModuleRoot()
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
			continue
		}
		if root == "" || filepath.IsAbs(file) {
			continue
		}
		if candidate := filepath.Join(root, file); fs.FileExists(candidate) {
			existingFiles = append(existingFiles, candidate)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

func findModuleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"orgchart"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Name, d.Password, d.MaxConns,
	)
}

type LogOptions struct {
	Level string `env:"LOG_LEVEL" envDefault:"error"`
	Path  string `env:"LOG_PATH" envDefault:"./logs/app.log"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"orgchart"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	AssignmentLockAdvisory = "advisory"
	AssignmentLockNone     = "none"
)

const (
	RateLimitStorageMemory = "memory"
	RateLimitStorageRedis  = "redis"
)

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate(redisURL string) error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	if r.Storage != RateLimitStorageMemory && r.Storage != RateLimitStorageRedis {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Enabled && r.Storage == RateLimitStorageRedis && strings.TrimSpace(redisURL) == "" {
		return errors.New("REDIS_URL is required when RATE_LIMIT_STORAGE is 'redis'")
	}
	return nil
}

type OrgChartOptions struct {
	CacheEnabled         bool          `env:"ORGCHART_CACHE_ENABLED" envDefault:"false"`
	CacheBackend         string        `env:"ORGCHART_CACHE_BACKEND" envDefault:"memory"`
	CacheTTL             time.Duration `env:"ORGCHART_CACHE_TTL" envDefault:"5m"`
	TraversalConcurrency int           `env:"ORGCHART_TRAVERSAL_CONCURRENCY" envDefault:"1"`
	MaxTraversalNodes    int           `env:"ORGCHART_MAX_TRAVERSAL_NODES" envDefault:"0"`
	AssignmentLock       string        `env:"ORGCHART_ASSIGNMENT_LOCK" envDefault:"advisory"`
	// Cron spec or descriptor (e.g. "@every 1h"); empty disables the scheduled check.
	IntegritySchedule    string        `env:"ORGCHART_INTEGRITY_SCHEDULE" envDefault:""`
}

// Validate checks the org chart options and normalizes enum values.
func (o *OrgChartOptions) Validate(redisURL string) error {
	backend := strings.ToLower(strings.TrimSpace(o.CacheBackend))
	if backend == "" {
		backend = CacheBackendMemory
	}
	switch backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid ORGCHART_CACHE_BACKEND=%q (expected memory|redis)", o.CacheBackend)
	}
	if o.CacheEnabled && backend == CacheBackendRedis && strings.TrimSpace(redisURL) == "" {
		return errors.New("REDIS_URL is required when ORGCHART_CACHE_BACKEND is 'redis'")
	}
	o.CacheBackend = backend

	if o.CacheTTL < 0 {
		return fmt.Errorf("ORGCHART_CACHE_TTL must be non-negative, got %s", o.CacheTTL)
	}
	if o.TraversalConcurrency < 1 || o.TraversalConcurrency > 64 {
		return fmt.Errorf("ORGCHART_TRAVERSAL_CONCURRENCY must be within [1, 64], got %d", o.TraversalConcurrency)
	}
	if o.MaxTraversalNodes < 0 {
		return fmt.Errorf("ORGCHART_MAX_TRAVERSAL_NODES must be non-negative, got %d", o.MaxTraversalNodes)
	}

	lock := strings.ToLower(strings.TrimSpace(o.AssignmentLock))
	if lock == "" {
		lock = AssignmentLockAdvisory
	}
	switch lock {
	case AssignmentLockAdvisory, AssignmentLockNone:
	default:
		return fmt.Errorf("invalid ORGCHART_ASSIGNMENT_LOCK=%q (expected advisory|none)", o.AssignmentLock)
	}
	o.AssignmentLock = lock

	o.IntegritySchedule = strings.TrimSpace(o.IntegritySchedule)
	if o.IntegritySchedule != "" {
		if _, err := cron.ParseStandard(o.IntegritySchedule); err != nil {
			return fmt.Errorf("invalid ORGCHART_INTEGRITY_SCHEDULE=%q: %w", o.IntegritySchedule, err)
		}
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	Log           LogOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	OrgChart      OrgChartOptions
	RateLimit     RateLimitOptions

	RedisURL         string `env:"REDIS_URL" envDefault:""`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	// Incoming requests carrying this header keep their id; otherwise a uuidv4 is generated.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Falls back to request.RemoteAddr when the header is absent.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	// Comma separated list for the CORS middleware; empty disables CORS.
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	logFile io.Closer
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	return ParseLogLevel(c.Log.Level)
}

// ParseLogLevel maps LOG_LEVEL values onto logrus levels, defaulting to error.
func ParseLogLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) CORSOrigins() []string {
	var out []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func Use() *Configuration {
	return singleton()
}

// Parse reads the environment into a fresh configuration without touching log
// files. Tests and the CLI use it directly.
func Parse() (*Configuration, error) {
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) validate() error {
	if err := c.OrgChart.Validate(c.RedisURL); err != nil {
		return fmt.Errorf("orgchart configuration error: %w", err)
	}
	if err := c.RateLimit.Validate(c.RedisURL); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid PORT=%d", c.ServerPort)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.Path)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
