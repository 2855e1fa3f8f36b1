package config

import (
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain keeps the caller's environment out of the defaults.
func TestMain(m *testing.M) {
	for _, k := range []string{
		"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FILE", "DB_DRIVER", "DB_PATH", "DB_DSN",
		"REDIS_ADDR", "REFLECTION_URL", "DEFAULT_TIMEZONE", "RATE_RPS", "RATE_BURST",
	} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIBasePath)
	assert.Equal(t, "release", cfg.GinMode)
	assert.True(t, cfg.LogRedact)
	assert.Empty(t, cfg.LogFile)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Reflection.URL)
	assert.Equal(t, LedgerConfig{ChallengeID: 1, DefaultTimezone: "UTC", SimulateTx: true}, cfg.Ledger)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)

	driver, dsn := cfg.DBSource()
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "alive28.db", dsn)
}

func TestLoad_Overrides(t *testing.T) {
	for k, v := range map[string]string{
		"PORT":                        "8088",
		"READ_TIMEOUT":                "2s",
		"MAX_HEADER_BYTES":            "8192",
		"GIN_MODE":                    "weird",
		"LOG_LEVEL":                   "Warning",
		"LOG_PRETTY":                  " yes ",
		"LOG_FILE":                    " /var/log/alive28.log ",
		"LOG_REDACT":                  "off",
		"SWAGGER_ENABLED":             "on",
		"API_BASE_PATH":               "api/v2/",
		"DB_DRIVER":                   "MySQL",
		"DB_DSN":                      "u:p@tcp(db:3306)/alive?parseTime=true",
		"REDIS_ADDR":                  "redis:6379",
		"REDIS_DB":                    "2",
		"LOCK_TTL":                    "5s",
		"REFLECTION_URL":              "http://reflect:9000/reflect",
		"REFLECTION_TIMEOUT":          "750ms",
		"CHALLENGE_ID":                "3",
		"DEFAULT_TIMEZONE":            "America/New_York",
		"SIMULATE_TX":                 "false",
		"RATE_RPS":                    "0.5",
		"RATE_BURST":                  "4",
		"CORS_ALLOWED_ORIGINS":        " https://a.com , , http://b ",
		"ENABLE_HSTS":                 "TRUE",
		"HSTS_MAX_AGE":                "24h",
		"IDEMPOTENCY_TTL":             "48h",
		"OTEL_ENABLED":                "1",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel:4317",
		"OTEL_EXPORTER_OTLP_INSECURE": "0",
		"OTEL_SERVICE_NAME":           "svc",
		"OTEL_TRACES_SAMPLER_ARG":     "0.75",
	} {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 8192, cfg.MaxHeaderBytes)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "/var/log/alive28.log", cfg.LogFile)
	assert.False(t, cfg.LogRedact)
	assert.True(t, cfg.SwaggerEnabled)
	assert.Equal(t, "/api/v2", cfg.APIBasePath)

	driver, dsn := cfg.DBSource()
	assert.Equal(t, "mysql", driver)
	assert.Equal(t, "u:p@tcp(db:3306)/alive?parseTime=true", dsn)

	assert.Equal(t, RedisConfig{Addr: "redis:6379", DB: 2, LockTTL: 5 * time.Second}, cfg.Redis)
	assert.Equal(t, ReflectionConfig{URL: "http://reflect:9000/reflect", Timeout: 750 * time.Millisecond}, cfg.Reflection)
	assert.Equal(t, LedgerConfig{ChallengeID: 3, DefaultTimezone: "America/New_York"}, cfg.Ledger)
	assert.Equal(t, 0.5, cfg.RateRPS)
	assert.Equal(t, 4, cfg.RateBurst)
	assert.Equal(t, []string{"https://a.com", "http://b"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, SecurityConfig{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}, cfg.Security)
	assert.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, OTELConfig{Enabled: true, Endpoint: "otel:4317", ServiceName: "svc", SampleRatio: 0.75}, cfg.OTEL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{map[string]string{"DB_DRIVER": "mysql"}, "DB_DSN"},
		{map[string]string{"DB_DRIVER": "postgres"}, "DB_DRIVER"},
		{map[string]string{"REDIS_ADDR": "localhost:6379", "LOCK_TTL": "0s"}, "LOCK_TTL"},
		{map[string]string{"REFLECTION_TIMEOUT": "0s"}, "REFLECTION_TIMEOUT"},
		{map[string]string{"CHALLENGE_ID": "0"}, "CHALLENGE_ID"},
		{map[string]string{"DEFAULT_TIMEZONE": "Mars/Olympus"}, "DEFAULT_TIMEZONE"},
		{map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
		{map[string]string{"RATE_BURST": "nope"}, `RATE_BURST: cannot parse "nope"`},
		{map[string]string{"LOG_PRETTY": "maybe"}, "LOG_PRETTY"},
		{map[string]string{"LOCK_TTL": "soon"}, "LOCK_TTL"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("RATE_RPS", "fast")
	t.Setenv("CHALLENGE_ID", "0")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"RATE_RPS", "CHALLENGE_ID", "DB_DRIVER"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestMustLoad(t *testing.T) {
	assert.NotPanics(t, func() { _ = MustLoad() })

	t.Setenv("LOG_LEVEL", "verbose")
	assert.Panics(t, func() { _ = MustLoad() })
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "Y", "on"} {
		b, err := parseBool(v)
		require.NoError(t, err, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"0", "false", "No", "n", "OFF"} {
		b, err := parseBool(v)
		require.NoError(t, err, v)
		assert.False(t, b, v)
	}
	_, err := parseBool("sometimes")
	assert.Error(t, err)
}

func TestSplitCSVAndBasePath(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b", "c"}, splitCSV(" a, ,b ,  c  ,"))

	for in, want := range map[string]string{"": "/", " / ": "/", "v1": "/v1", "/v1/": "/v1", "//api//": "/api"} {
		assert.Equal(t, want, normalizeBasePath(in), in)
	}
}
