package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers understood by store.Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"
)

// What to do when the local store cannot be opened.
const (
	OnInitFailureDegrade = "degrade" // log it and continue with an empty in-memory store
	OnInitFailureFail    = "fail"    // abort startup
)

// Config holds the client's configuration values.
// Tags like `envconfig:"APP_ENV"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // development, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
	Log        LogConfig
	Catalog    CatalogConfig
	Store      StoreConfig
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	FileEnable bool   `envconfig:"LOG_FILE_ENABLE" default:"false"`
	Filename   string `envconfig:"LOG_FILE" default:"catalog-client.log"`
	MaxSizeMB  int    `envconfig:"LOG_FILE_MAX_SIZE_MB" default:"16"`
	MaxBackups int    `envconfig:"LOG_FILE_MAX_BACKUPS" default:"3"`
	MaxAgeDays int    `envconfig:"LOG_FILE_MAX_AGE_DAYS" default:"7"`
}

// CatalogConfig holds the remote catalog API settings and coordinator behaviour.
type CatalogConfig struct {
	BaseURL            string        `envconfig:"CATALOG_BASE_URL" default:"https://app.getswipe.in/api/public"`
	Timeout            time.Duration `envconfig:"CATALOG_TIMEOUT" default:"30s"`
	RequestsPerSecond  float64       `envconfig:"CATALOG_RPS" default:"5"` // 0 disables client-side pacing
	Burst              int           `envconfig:"CATALOG_BURST" default:"5"`
	AutoRefresh        string        `envconfig:"CATALOG_AUTO_REFRESH" default:""` // cron spec, e.g. "@every 5m"; empty disables
	PersistSubmissions bool          `envconfig:"CATALOG_PERSIST_SUBMISSIONS" default:"false"`
	RefreshOnStart     bool          `envconfig:"CATALOG_REFRESH_ON_START" default:"true"`
}

// StoreConfig selects and configures the local product store.
type StoreConfig struct {
	Driver        string `envconfig:"STORE_DRIVER" default:"sqlite"`
	Path          string `envconfig:"STORE_PATH" default:"catalog.db"` // file for sqlite and bolt
	OnInitFailure string `envconfig:"STORE_ON_INIT_FAILURE" default:"degrade"`
	Postgres      PostgresConfig
}

// PostgresConfig holds PostgreSQL connection details for the postgres driver.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"catalog"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:""`
	DBName   string `envconfig:"POSTGRES_DBNAME" default:"catalog"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// ServerConfig holds the presentation bridge HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite   time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle    time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	AllowedOrigins []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
}

// GrpcServerConfig holds the gRPC health server settings.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: CATALOG_BASE_URL %q is not an absolute URL", c.Catalog.BaseURL)
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return fmt.Errorf("config: CATALOG_RPS must not be negative")
	}

	c.Store.Driver = strings.ToLower(c.Store.Driver)
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres, DriverBolt, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	c.Store.OnInitFailure = strings.ToLower(c.Store.OnInitFailure)
	switch c.Store.OnInitFailure {
	case OnInitFailureDegrade, OnInitFailureFail:
	default:
		return fmt.Errorf("config: STORE_ON_INIT_FAILURE must be %q or %q", OnInitFailureDegrade, OnInitFailureFail)
	}
	return nil
}

// IsProduction reports whether the client runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
