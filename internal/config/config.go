package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/metrics"
	"fieldmetrics-dashboard/internal/source"
)

type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	JWTExpirySeconds   int64
	APIKeyHash         string
	RabbitMQURL        string
	EventsExchange     string
	CorsAllowedOrigins []string

	FetchTimeout   time.Duration
	SnapshotTTL    time.Duration
	WSPollInterval time.Duration

	WeekMode            daterange.WeekMode
	Department          string
	InstallRevenueFloor float64
	DiagnosticFeeCap    float64
	ScoreRangesPath     string
	SourcesPath         string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ReportArchivePrefix        string
}

func Load() Config {
	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8086"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:   getEnvInt64("JWT_EXPIRY", 3600),
		APIKeyHash:         getEnv("API_KEY_HASH", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		EventsExchange:     getEnv("EVENTS_EXCHANGE", "dashboard.events"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		FetchTimeout:   getEnvDuration("SOURCE_FETCH_TIMEOUT", 15*time.Second),
		SnapshotTTL:    getEnvDuration("SNAPSHOT_TTL", 60*time.Second),
		WSPollInterval: getEnvDuration("WS_POLL_INTERVAL", 15*time.Second),

		WeekMode:            daterange.ParseWeekMode(getEnv("WEEK_MODE", "to_date")),
		Department:          getEnv("DEPARTMENT_FILTER", "Drain Cleaning"),
		InstallRevenueFloor: getEnvFloat64("INSTALL_REVENUE_FLOOR", 10000),
		DiagnosticFeeCap:    getEnvFloat64("DIAGNOSTIC_FEE_CAP", 150),
		ScoreRangesPath:     getEnv("SCORE_RANGES_PATH", ""),
		SourcesPath:         getEnv("SOURCES_PATH", ""),

		// Object store (Cloudflare R2 / S3-compatible) holding the workbooks.
		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ReportArchivePrefix:        getEnv("REPORT_ARCHIVE_PREFIX", "reports/"),
	}

	// Back-compat: allow R2_ACCOUNT_ID -> endpoint
	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

// Rules builds the calculator rules from the configured thresholds, keeping
// the default keyword classifiers.
func (c Config) Rules() metrics.Rules {
	rules := metrics.DefaultRules()
	rules.Department = c.Department
	if c.InstallRevenueFloor > 0 {
		rules.InstallRevenueFloor = c.InstallRevenueFloor
	}
	if c.DiagnosticFeeCap > 0 {
		rules.DiagnosticFeeCap = c.DiagnosticFeeCap
	}
	return rules
}

// LoadSources reads the source descriptors, preferring the SOURCES_JSON
// environment variable over the SourcesPath file. Neither set means the
// dashboard runs in demo mode.
func (c Config) LoadSources() ([]source.Config, error) {
	raw := strings.TrimSpace(os.Getenv("SOURCES_JSON"))
	if raw == "" {
		if c.SourcesPath == "" {
			return nil, nil
		}
		data, err := os.ReadFile(c.SourcesPath)
		if err != nil {
			return nil, fmt.Errorf("read sources file: %w", err)
		}
		raw = string(data)
	}

	var sources []source.Config
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	for i := range sources {
		if strings.TrimSpace(sources[i].ID) == "" {
			return nil, fmt.Errorf("source %d: missing id", i)
		}
		sources[i].Role = source.ParseRole(string(sources[i].Role))
	}
	return sources, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat64(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
