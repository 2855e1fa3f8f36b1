// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, the per-address lock, the reflection backend, rate
// limiting and observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/alive28-ledger/internal/calendar"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "alive28-ledger")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the storage backend.
type DBConfig struct {
	Driver string // sqlite|mysql
	Path   string // SQLite file
	DSN    string // MySQL DSN; required when Driver is mysql
}

// RedisConfig configures the distributed per-address lock. An empty Addr
// keeps the lock in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// ReflectionConfig points at the optional reflection backend. An empty URL
// means the local template is always used.
type ReflectionConfig struct {
	URL     string
	Timeout time.Duration
}

// LedgerConfig holds the challenge rules that vary per deployment.
type LedgerConfig struct {
	ChallengeID     int
	DefaultTimezone string
	SimulateTx      bool // derive a tx hash when the caller sends none
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        string // optional rotating log file
	LogRedact      bool   // scrub identifiers from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	DB         DBConfig
	Redis      RedisConfig
	Reflection ReflectionConfig
	Ledger     LedgerConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main: it panics on an invalid environment.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and validates the result.
// Malformed values are errors rather than silent defaults; every problem
// found is reported at once.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.flag("LOG_PRETTY", false),
		LogFile:        strings.TrimSpace(e.str("LOG_FILE", "")),
		LogRedact:      e.flag("LOG_REDACT", true),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(e.str("DB_DRIVER", "sqlite")),
			Path:   e.str("DB_PATH", "alive28.db"),
			DSN:    e.str("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(e.str("REDIS_ADDR", "")),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
			LockTTL:  e.dur("LOCK_TTL", 10*time.Second),
		},
		Reflection: ReflectionConfig{
			URL:     strings.TrimSpace(e.str("REFLECTION_URL", "")),
			Timeout: e.dur("REFLECTION_TIMEOUT", 3*time.Second),
		},
		Ledger: LedgerConfig{
			ChallengeID:     e.integer("CHALLENGE_ID", 1),
			DefaultTimezone: e.str("DEFAULT_TIMEZONE", "UTC"),
			SimulateTx:      e.flag("SIMULATE_TX", true),
		},

		RateRPS:   e.number("RATE_RPS", 5.0),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "alive28-ledger"),
			SampleRatio: e.number("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if !slices.Contains([]string{"debug", "release", "test"}, cfg.GinMode) {
		cfg.GinMode = "release"
	}

	return cfg, errors.Join(append(e.errs, cfg.validate()...)...)
}

func (cfg Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(slices.Contains(logLevels, cfg.LogLevel), "LOG_LEVEL must be one of: "+strings.Join(logLevels, ", "))
	check(strings.TrimSpace(cfg.Port) != "", "PORT must not be empty")
	check(cfg.ReadTimeout > 0 && cfg.ReadHeaderTimeout > 0 && cfg.WriteTimeout > 0 && cfg.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch cfg.DB.Driver {
	case "sqlite":
		check(strings.TrimSpace(cfg.DB.Path) != "", "DB_PATH must not be empty")
	case "mysql":
		check(strings.TrimSpace(cfg.DB.DSN) != "", "DB_DSN is required when DB_DRIVER=mysql")
	default:
		errs = append(errs, errors.New("DB_DRIVER must be sqlite or mysql"))
	}

	check(cfg.Redis.Addr == "" || cfg.Redis.LockTTL > 0, "LOCK_TTL must be > 0")
	check(cfg.Reflection.Timeout > 0, "REFLECTION_TIMEOUT must be > 0")
	check(cfg.Ledger.ChallengeID >= 1, "CHALLENGE_ID must be >= 1")
	if _, err := calendar.LoadLocation(cfg.Ledger.DefaultTimezone); err != nil {
		errs = append(errs, errors.New("DEFAULT_TIMEZONE must be an IANA zone name"))
	}
	check(cfg.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errs
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal", "panic"}

// DBSource returns the driver and data source the repo layer opens.
func (c Config) DBSource() (driver, dsn string) {
	if c.DB.Driver == "mysql" {
		return c.DB.Driver, c.DB.DSN
	}
	return c.DB.Driver, c.DB.Path
}

// env reads typed variables and remembers the ones that fail to parse.
// Unset and empty variables take the default.
type env struct {
	errs []error
}

func lookup[T any](e *env, key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	out, err := parse(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: cannot parse %q", key, v))
		return def
	}
	return out
}

func (e *env) str(key, def string) string {
	return lookup(e, key, def, func(s string) (string, error) { return s, nil })
}

func (e *env) integer(key string, def int) int { return lookup(e, key, def, strconv.Atoi) }

func (e *env) dur(key string, def time.Duration) time.Duration {
	return lookup(e, key, def, time.ParseDuration)
}

func (e *env) number(key string, def float64) float64 {
	return lookup(e, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (e *env) flag(key string, def bool) bool { return lookup(e, key, def, parseBool) }

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns "/" for empty input, otherwise a path with one
// leading slash and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
