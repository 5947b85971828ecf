package app

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Host  string // Bind address (default: 0.0.0.0)
	Port  int    // HTTP server port (default: 8080)
	Realm string // Realm clients must name in WWW-Authenticate (default: AuthServer)

	// BearerScheme labels the Authorization header on token routes (default: Basic)
	BearerScheme string

	JWTSecret string        // Required: HS512 signing secret
	JWTKID    string        // Key id stamped into every token header (default: tabauth-1)
	TokenTTL  time.Duration // Session lifetime (default: 24h)

	PepperFile string // Optional: file holding the password pepper

	DBDriver      string        // sqlite or postgres (default: sqlite)
	DatabaseFile  string        // SQLite file (default: auth.db)
	DatabaseURL   string        // Postgres DSN, required for the postgres driver
	DBMaxOpen     int           // Pool size, 0 keeps the driver default
	DBMaxIdle     int           // Idle connections kept, sqlite only
	DBPoolTimeout time.Duration // Bound on each store call for postgres (default: 5s)

	HashWorkers int // Argon2 workers, 0 means one per CPU

	Env                 string        // dev, staging, prod (default: dev)
	LogLevel            string        // debug, info, warn, error (default: info)
	LogFormat           string        // json, text (default: json)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	MetricsEnabled      bool          // Serve /metrics (default: true)
}

// LoadConfig reads configuration from the environment and, when path is set,
// from a YAML or .env file. The environment wins over the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("AUTH_HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("AUTH_REALM", "AuthServer")
	v.SetDefault("AUTH_BEARER_SCHEME", "Basic")
	v.SetDefault("AUTH_JWT_KID", "tabauth-1")
	v.SetDefault("AUTH_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("AUTH_PEPPER_FILE", "")
	v.SetDefault("AUTH_DB_DRIVER", DriverSQLite)
	v.SetDefault("AUTH_DATABASE_FILE", "auth.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AUTH_DB_POOL_MAX_OPEN", 0)
	v.SetDefault("AUTH_DB_POOL_MAX_IDLE", 0)
	v.SetDefault("AUTH_DB_POOL_TIMEOUT", 5*time.Second)
	v.SetDefault("AUTH_HASH_WORKERS", 0)
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second)
	v.SetDefault("AUTH_METRICS_ENABLED", true)

	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	cfg := Config{
		Host:                v.GetString("AUTH_HOST"),
		Port:                v.GetInt("PORT"),
		Realm:               v.GetString("AUTH_REALM"),
		BearerScheme:        v.GetString("AUTH_BEARER_SCHEME"),
		JWTSecret:           v.GetString("AUTH_JWT_SECRET"),
		JWTKID:              v.GetString("AUTH_JWT_KID"),
		TokenTTL:            v.GetDuration("AUTH_TOKEN_TTL"),
		PepperFile:          v.GetString("AUTH_PEPPER_FILE"),
		DBDriver:            v.GetString("AUTH_DB_DRIVER"),
		DatabaseFile:        v.GetString("AUTH_DATABASE_FILE"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		DBMaxOpen:           v.GetInt("AUTH_DB_POOL_MAX_OPEN"),
		DBMaxIdle:           v.GetInt("AUTH_DB_POOL_MAX_IDLE"),
		DBPoolTimeout:       v.GetDuration("AUTH_DB_POOL_TIMEOUT"),
		HashWorkers:         v.GetInt("AUTH_HASH_WORKERS"),
		Env:                 v.GetString("ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		ShutdownGracePeriod: v.GetDuration("SHUTDOWN_GRACE_PERIOD"),
		MetricsEnabled:      v.GetBool("AUTH_METRICS_ENABLED"),
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting the service cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("AUTH_JWT_SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return oops.Code("CONFIG_INVALID").Errorf("PORT %d out of range", c.Port)
	}
	if c.Realm == "" {
		return oops.Code("CONFIG_INVALID").Errorf("AUTH_REALM must not be empty")
	}
	if c.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("AUTH_TOKEN_TTL must be positive")
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return oops.Code("CONFIG_INVALID").Errorf("AUTH_DATABASE_FILE is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return oops.Code("CONFIG_INVALID").Errorf("unknown AUTH_DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SQLiteDSN enables WAL and a busy timeout for file databases.
func (c Config) SQLiteDSN() string {
	if c.DatabaseFile == ":memory:" {
		return c.DatabaseFile
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.DatabaseFile)
}
